package lang_test

import (
	"context"
	"fmt"
	"os"

	"github.com/ardnew/tryparse/lang"
)

func ExampleParse() {
	src := "require 'json'\n\n## adds numbers\n1 + 1\n#=> 2\n"

	file, diags := lang.Parse(context.Background(), src)
	fmt.Println(len(diags))

	for _, b := range file.Blocks() {
		fmt.Printf("%s: %s => %s\n", b.Description.Text, b.CodeText(), b.Expectations[0].Text)
	}
	// Output:
	// 0
	// adds numbers: 1 + 1 => 2
}

func ExampleParse_diagnostics() {
	src := "## broken\n#=> 1\nx = 'open\n"

	_, diags := lang.Parse(context.Background(), src)
	for _, d := range diags {
		fmt.Println(d)
	}
	// Output:
	// 2:1: structural error: expectation without code
	// 3:5: lexical error: unterminated string literal
}

func ExampleBuilder() {
	b := lang.NewBuilder()

	file := b.File(
		b.Setup(b.Require("json")),
		b.Block(b.Describe("parses"),
			b.Code("JSON.parse('[1]')"),
			b.Expect("#=>", "[1]"),
		),
	)

	_ = file.Format(context.Background(), os.Stdout)
	// Output:
	// require json
	// ## parses
	// JSON.parse('[1]')
	// #=> [1]
}

func ExampleSourceFile_Print() {
	file, _ := lang.Parse(context.Background(), "## t\nx\n#=> 1\n")

	_ = file.Print(context.Background(), os.Stdout)
	// Output:
	// source_file [0,13)
	//   tryout_block [0,13)
	//     tryout_description [0,5): "t"
	//     code_line [5,7): "x"
	//     expectation [7,13): regular: "1"
}
