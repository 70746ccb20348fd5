package cmd

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/justapithecus/hessian/cli/render"
	"github.com/justapithecus/hessian/cli/tui"
	"github.com/justapithecus/hessian/hessian"
	"github.com/justapithecus/hessian/policy"
)

// InspectResponse is the response for inspect in json and yaml formats.
type InspectResponse struct {
	Source      string `json:"source"`
	Scope       string `json:"scope"`
	Outcome     string `json:"outcome"`
	Message     string `json:"message"`
	Messages    int64  `json:"messages"`
	Events      int64  `json:"events"`
	Bytes       int64  `json:"bytes"`
	Definitions int    `json:"definitions"`
	Values      []any  `json:"values"`
}

// InspectCommand returns the inspect command.
// Inspect shows the value tree of every decoded message.
func InspectCommand() *cli.Command {
	return &cli.Command{
		Name:      "inspect",
		Usage:     "Inspect the value trees of a hessian byte stream",
		ArgsUsage: "[file|-]",
		Flags:     append(OutputFlags(), DecoderFlags()...),
		Action:    inspectAction,
	}
}

func inspectAction(c *cli.Context) error {
	r, err := render.NewRenderer(c)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	choice, err := resolveDecodeChoice(c, cfg)
	if err != nil {
		return err
	}
	path, err := singleInput(c)
	if err != nil {
		return err
	}

	result, err := decodeLocal(c, path, choice, policy.NewNoopPolicy())
	if err != nil {
		return err
	}

	root := tui.BuildTree(result.Meta.Source, result.Values)
	switch {
	case c.Bool("tui"):
		if err := r.RenderTUI(tui.ViewInspectMessages, root); err != nil {
			return err
		}
	case r.Format() == render.FormatTable:
		out, err := tui.RenderStatic(tui.ViewInspectMessages, root)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintln(c.App.Writer, out); err != nil {
			return err
		}
	default:
		values := make([]any, 0, len(result.Values))
		for _, v := range result.Values {
			values = append(values, hessian.Plain(v))
		}
		resp := InspectResponse{
			Source:      result.Meta.Source,
			Scope:       result.Meta.Scope,
			Outcome:     string(result.Outcome.Status),
			Message:     result.Outcome.Message,
			Messages:    result.Messages,
			Events:      result.Events,
			Bytes:       result.Bytes,
			Definitions: result.Definitions,
			Values:      values,
		}
		if err := r.Render(resp); err != nil {
			return err
		}
	}
	return outcomeExit(result)
}
