package cmd

import (
	"context"

	"github.com/urfave/cli/v2"

	"github.com/justapithecus/hessian/cli/render"
	"github.com/justapithecus/hessian/hessian"
	"github.com/justapithecus/hessian/policy"
	"github.com/justapithecus/hessian/types"
)

// DecodeResponse is the response for decode.
type DecodeResponse struct {
	Source   string `json:"source"`
	Scope    string `json:"scope"`
	Outcome  string `json:"outcome"`
	Bytes    int64  `json:"bytes"`
	Messages []any  `json:"messages"`
}

// EventRow is one decoder event as printed by decode --events.
type EventRow struct {
	Seq      int64             `json:"seq"`
	Message  int64             `json:"message"`
	Offset   int64             `json:"offset"`
	Type     hessian.EventType `json:"type"`
	Kind     hessian.Kind      `json:"kind,omitempty"`
	ID       int               `json:"id"`
	TypeName string            `json:"type_name,omitempty"`
	Field    string            `json:"field,omitempty"`
	Value    any               `json:"value,omitempty"`
}

// DecodeCommand returns the decode command.
// Decode prints every complete message of one input, or its event stream.
// Nothing is persisted.
func DecodeCommand() *cli.Command {
	flags := append(OutputFlags(), DecoderFlags()...)
	flags = append(flags, &cli.BoolFlag{
		Name:  "events",
		Usage: "Print decoder events instead of assembled messages",
	})
	return &cli.Command{
		Name:      "decode",
		Usage:     "Decode a hessian byte stream and print its messages",
		ArgsUsage: "[file|-]",
		Flags:     flags,
		Action:    decodeAction,
	}
}

func decodeAction(c *cli.Context) error {
	if c.Bool("tui") {
		return cli.Exit("--tui is not supported for decode command", 1)
	}
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

	var (
		pol    policy.Policy = policy.NewNoopPolicy()
		events *collectSink
	)
	if c.Bool("events") {
		events = &collectSink{}
		pol = policy.NewStrictPolicy(events)
	}

	result, err := decodeLocal(c, path, choice, pol)
	if err != nil {
		return err
	}

	if events != nil {
		rows := make([]EventRow, 0, len(events.records))
		for _, rec := range events.records {
			rows = append(rows, eventRow(rec))
		}
		if err := r.Render(rows); err != nil {
			return err
		}
		return outcomeExit(result)
	}

	messages := make([]any, 0, len(result.Values))
	for _, v := range result.Values {
		messages = append(messages, hessian.Plain(v))
	}
	resp := DecodeResponse{
		Source:   result.Meta.Source,
		Scope:    result.Meta.Scope,
		Outcome:  string(result.Outcome.Status),
		Bytes:    result.Bytes,
		Messages: messages,
	}
	if r.Format() == render.FormatTable {
		// Table output lists one row per message.
		if err := r.Render(messages); err != nil {
			return err
		}
	} else if err := r.Render(resp); err != nil {
		return err
	}
	return outcomeExit(result)
}

func eventRow(rec *types.EventRecord) EventRow {
	return EventRow{
		Seq:      rec.Seq,
		Message:  rec.Message,
		Offset:   rec.Offset,
		Type:     rec.Type,
		Kind:     rec.Kind,
		ID:       rec.ID,
		TypeName: rec.TypeName,
		Field:    rec.Field,
		Value:    rec.Value,
	}
}

// collectSink keeps every record in memory.
type collectSink struct {
	records []*types.EventRecord
}

func (s *collectSink) WriteEvents(_ context.Context, records []*types.EventRecord) error {
	s.records = append(s.records, records...)
	return nil
}

func (s *collectSink) Close() error { return nil }

var _ policy.Sink = (*collectSink)(nil)
