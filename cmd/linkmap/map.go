package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/fwojciec/linkmap"
	"github.com/fwojciec/linkmap/fs"
)

// Run executes the map command.
func (c *MapCmd) Run(deps *Dependencies) error {
	resp, err := deps.Links.ProcessLinksRequest(deps.Ctx, c.Request())
	if err != nil {
		var linksErr *linkmap.LinksError
		if errors.As(err, &linksErr) {
			// The failure body may still carry a cached tree.
			if werr := c.write(deps, linksErr); werr != nil {
				return werr
			}
		}
		fmt.Fprintf(deps.Stderr, "error: %s\n", message(err))
		return err
	}
	return c.write(deps, resp)
}

func (c *MapCmd) write(deps *Dependencies, v any) error {
	switch {
	case c.Output == "":
		enc := json.NewEncoder(deps.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case strings.HasSuffix(c.Output, "/"):
		path, err := fs.NewWriter(c.Output).WriteFor(c.URL, v)
		if err != nil {
			return err
		}
		fmt.Fprintf(deps.Stderr, "wrote %s\n", path)
		return nil
	default:
		if err := fs.WriteJSON(c.Output, v); err != nil {
			return err
		}
		fmt.Fprintf(deps.Stderr, "wrote %s\n", c.Output)
		return nil
	}
}

func message(err error) string {
	var linksErr *linkmap.LinksError
	if errors.As(err, &linksErr) {
		return linksErr.Message
	}
	return linkmap.ErrorMessage(err)
}
