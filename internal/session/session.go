// Package session drives the operator-facing prompt loop.
package session

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
)

// Resolver turns one operator query into printable output.
type Resolver interface {
	Resolve(ctx context.Context, query string) string
}

// Run reads queries line by line from in and prints resolved answers to out
// until the operator submits "quit" (any case) or input is exhausted. One
// query is in flight at a time: the next prompt is only issued after the
// previous answer has been printed. The raw line, untrimmed, is what reaches
// the resolver.
func Run(ctx context.Context, in io.Reader, out io.Writer, resolver Resolver) error {
	fmt.Fprintln(out, "MCP bridge started.")
	fmt.Fprintln(out, "Type your queries or 'quit' to exit.")

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "\nQuery: ")
		if !scanner.Scan() {
			break
		}
		line := scanner.Text()
		if strings.EqualFold(strings.TrimSpace(line), "quit") {
			break
		}
		fmt.Fprintf(out, "\n%s\n", resolver.Resolve(ctx, line))
	}
	return scanner.Err()
}
