package lang

import "log/slog"

// Validate checks the arrangement of a tree built by a [Builder] or modified
// after parsing. [Parse] already includes these diagnostics in its result.
//
// Positions are computed from the tree's own text. Spans of a parsed tree
// refer to the input instead, which differs when parsing discarded lines; use
// [ValidateSource] for those.
func Validate(f *SourceFile) Diagnostics {
	return ValidateSource(f, f.String())
}

// ValidateSource is like [Validate] but computes positions from src, the text
// the tree's spans refer to.
func ValidateSource(f *SourceFile, src string) Diagnostics {
	ds := validate(f, newLineIndex(src))
	ds.sort()

	return ds
}

// validate reports structural errors: misplaced or repeated sections, empty
// sections and blocks, and expectations without code.
func validate(f *SourceFile, lines lineIndex) Diagnostics {
	v := validator{lines: lines}

	var (
		setup, teardown *Section
		blockSeen       bool
	)

	lastBlock := -1

	for i, item := range f.Items {
		if _, ok := item.(*TryoutBlock); ok {
			lastBlock = i
		}
	}

	for i, item := range f.Items {
		switch n := item.(type) {
		case *Section:
			if len(n.Statements()) == 0 {
				v.fail(ErrEmptySection.With(slog.String("section", n.Phase.String())), n.span)
			}

			switch n.Phase {
			case SectionSetup:
				if setup != nil {
					v.fail(ErrDuplicateSetup, n.span)
				} else if blockSeen {
					v.fail(ErrSetupOrder, n.span)
				}

				if setup == nil {
					setup = n
				}

			case SectionTeardown:
				if teardown != nil {
					v.fail(ErrDuplicateTeardown, n.span)
				} else if i < lastBlock {
					v.fail(ErrTeardownOrder, n.span)
				}

				if teardown == nil {
					teardown = n
				}
			}

		case *TryoutBlock:
			blockSeen = true

			v.block(n)
		}
	}

	return v.diags
}

type validator struct {
	lines lineIndex
	diags Diagnostics
}

func (v *validator) block(b *TryoutBlock) {
	desc := ""
	if b.Description != nil {
		desc = b.Description.Text
	}

	attr := slog.String("description", desc)

	switch {
	case len(b.Code) == 0 && len(b.Expectations) == 0:
		v.fail(ErrEmptyBlock.With(attr), b.span)

	case len(b.Code) == 0:
		v.fail(ErrExpectationWithoutCode.With(attr), b.Expectations[0].span)

	case len(b.Expectations) == 0:
		v.report(SeverityWarning, ErrMissingExpectation.With(attr), b.span)
	}
}

func (v *validator) fail(err *Error, span Span) {
	v.report(SeverityError, err, span)
}

func (v *validator) report(sev Severity, err *Error, span Span) {
	v.diags = append(v.diags, Diagnostic{
		Err:      err,
		Message:  err.Error(),
		Start:    v.lines.position(span.Start),
		End:      v.lines.position(span.End),
		Severity: sev,
		Kind:     StructuralError,
	})
}
