package typedscope_test

import (
	"testing"

	"github.com/dogmatiq/scopekit/driver/memory/memorychannel"
	"github.com/dogmatiq/scopekit/marshaler"
	"github.com/dogmatiq/scopekit/scope"
	. "github.com/dogmatiq/scopekit/scope/typedscope"
	"github.com/google/go-cmp/cmp"
	"google.golang.org/protobuf/testing/protocmp"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

type widget struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestClient_json(t *testing.T) {
	t.Parallel()

	shared, err := scope.NewShared(&memorychannel.Channel{})
	if err != nil {
		t.Fatal(err)
	}
	defer shared.Close()

	c := Client[widget, marshaler.Marshaler[widget]]{
		Client:         shared,
		ValueMarshaler: marshaler.NewJSON[widget](),
	}

	if err := c.SubmitUpdate(
		t.Context(),
		Batch[widget]{
			Insert: []Item[widget]{
				{"<key-1>", widget{Name: "one", Count: 1}},
				{"<key-2>", widget{Name: "two", Count: 2}},
			},
		},
	); err != nil {
		t.Fatal(err)
	}

	if err := c.SubmitUpdate(
		t.Context(),
		Batch[widget]{
			Delete: []string{"<key-2>"},
		},
	); err != nil {
		t.Fatal(err)
	}

	values, err := c.FetchAll(t.Context())
	if err != nil {
		t.Fatal(err)
	}

	expect := map[string]widget{
		"<key-1>": {Name: "one", Count: 1},
	}

	if diff := cmp.Diff(expect, values); diff != "" {
		t.Fatal(diff)
	}
}

func TestClient_protobuf(t *testing.T) {
	t.Parallel()

	shared, err := scope.NewShared(&memorychannel.Channel{})
	if err != nil {
		t.Fatal(err)
	}
	defer shared.Close()

	// Protobuf output is binary, so it is base64-wrapped to travel as opaque
	// text.
	c := Client[*wrapperspb.StringValue, marshaler.Marshaler[*wrapperspb.StringValue]]{
		Client:         shared,
		ValueMarshaler: marshaler.NewBase64(marshaler.NewProto[*wrapperspb.StringValue]()),
	}

	if err := c.SubmitUpdate(
		t.Context(),
		Batch[*wrapperspb.StringValue]{
			Insert: []Item[*wrapperspb.StringValue]{
				{"<key>", wrapperspb.String("<value>")},
			},
		},
	); err != nil {
		t.Fatal(err)
	}

	values, err := c.FetchAll(t.Context())
	if err != nil {
		t.Fatal(err)
	}

	expect := map[string]*wrapperspb.StringValue{
		"<key>": wrapperspb.String("<value>"),
	}

	if diff := cmp.Diff(expect, values, protocmp.Transform()); diff != "" {
		t.Fatal(diff)
	}
}
