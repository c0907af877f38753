package lang

// ToMap converts the tree to native Go maps and slices, suitable for
// encoding. Every node becomes a map with its "kind" and "span" plus the
// fields of its type; blank-line runs are included so the layout of the
// source is preserved.
func (f *SourceFile) ToMap() map[string]any {
	items := make([]any, 0, len(f.Items))
	for _, n := range f.Items {
		items = append(items, ToNative(n))
	}

	return map[string]any{
		"kind":  KindSourceFile.String(),
		"span":  spanMap(f.span),
		"items": items,
	}
}

// ToMap converts the block to a map holding its description, code, and
// expectations, along with per-kind expectation counts.
func (b *TryoutBlock) ToMap() map[string]any {
	desc := ""
	if b.Description != nil {
		desc = b.Description.Text
	}

	code := make([]any, len(b.Code))
	for i, c := range b.Code {
		code[i] = c.Text
	}

	exps := make([]any, len(b.Expectations))
	counts := make(map[string]any)

	for i, e := range b.Expectations {
		exps[i] = ToNative(e)

		n, _ := counts[e.Type.String()].(int)
		counts[e.Type.String()] = n + 1
	}

	return map[string]any{
		"kind":         KindTryoutBlock.String(),
		"span":         spanMap(b.span),
		"description":  desc,
		"code":         code,
		"expectations": exps,
		"counts":       counts,
	}
}

// ToNative converts any node to its native Go representation.
func ToNative(n Node) map[string]any {
	if b, ok := n.(*TryoutBlock); ok {
		return b.ToMap()
	}

	if f, ok := n.(*SourceFile); ok {
		return f.ToMap()
	}

	m := map[string]any{
		"kind": n.Kind().String(),
		"span": spanMap(n.Span()),
	}

	switch n := n.(type) {
	case *Section:
		body := make([]any, 0, len(n.Body))
		for _, c := range n.Body {
			body = append(body, ToNative(c))
		}

		m["body"] = body

	case *TryoutDescription:
		m["text"] = n.Text

	case *CodeLine:
		m["text"] = n.Text

	case *Expectation:
		m["type"] = n.Type.String()
		m["marker"] = n.Marker
		m["text"] = n.Text

		if n.Type == ExpectOutput {
			m["pipe"] = n.Pipe
		}

		if n.Inline {
			m["inline"] = true
		}

	case *Comment:
		m["text"] = n.Text

	case *RequireStatement:
		m["target"] = n.Target

		if n.Quote != 0 {
			m["quote"] = string(n.Quote)
		}

	case *AssignmentStatement:
		m["target"] = n.Target
		m["instance"] = n.Instance

		if n.Value != nil {
			m["value"] = ToNative(n.Value)
		}

	case *ConfigurationStatement:
		m["directive"] = n.Directive

	case *AnyStatement:
		m["text"] = n.Text

	case *StringLiteral:
		m["text"] = n.Text
		m["quote"] = string(n.Quote)
		m["terminated"] = n.Terminated

	case *AnyValue:
		m["text"] = n.Text

	case *BlankLine:
		m["lines"] = n.Lines
	}

	return m
}

func spanMap(s Span) map[string]any {
	return map[string]any{"start": s.Start, "end": s.End}
}
