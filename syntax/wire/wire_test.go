package wire

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/chazu/tiersplit/syntax"
	"github.com/chazu/tiersplit/syntax/hash"
	"github.com/fxamacker/cbor/v2"
)

const sample = `from rpython.rlib.jit import we_are_jitted

@jit.unroll_safe
def interp(self, pc=0, *args, **kw):
    while pc < len(bytecode):
        opcode = ord(bytecode[pc])
        if opcode == JUMP:
            pc, tstack = tstack.t_pop()
        elif opcode in (1, 2):
            x = {'a': [1, -2]}[k:j:2] if not c else None
        else:
            del frame[0]
        try:
            self.step(*args, key=1)
        except KeyError as e:
            raise
        finally:
            print >>out, 'done',
    global g
    assert a, b
    with lock as held, other:
        exec code in ns
        raise ValueError, msg, tb
    squares = [i * i for i in range(n) if i for j in i]
    seen = {x for x in xs}
    index = {k: v for k, v in items}
    total = sum(x for x in {1, 2})
    key = lambda a, b=1, *c, **d: (yield a)
    return
`

func positions(n syntax.Node) []syntax.Position {
	var out []syntax.Position
	syntax.Inspect(n, func(n syntax.Node) bool {
		out = append(out, n.Pos())
		return true
	})
	return out
}

func TestRoundTrip(t *testing.T) {
	mod, err := syntax.ParseModule(sample)
	if err != nil {
		t.Fatalf("ParseModule: %v", err)
	}

	data, err := Marshal(mod, "run-1")
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	got, runID, err := Unmarshal(data)
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	if runID != "run-1" {
		t.Errorf("run id: got %q, want %q", runID, "run-1")
	}
	if !hash.Equal(mod, got) {
		t.Errorf("decoded tree differs structurally:\n%s", syntax.Print(got))
	}
	if syntax.Print(mod) != syntax.Print(got) {
		t.Errorf("decoded tree prints differently")
	}

	want := positions(mod)
	have := positions(got)
	if len(want) != len(have) {
		t.Fatalf("node count: got %d, want %d", len(have), len(want))
	}
	for i := range want {
		if want[i] != have[i] {
			t.Errorf("node %d at %v, want %v", i, have[i], want[i])
		}
	}
}

func TestRoundTripDeepTree(t *testing.T) {
	var b strings.Builder
	b.WriteString("def run(self, pc):\n    while True:\n        op = ord(code[pc])\n")
	for i := 0; i < 60; i++ {
		kw := "elif"
		if i == 0 {
			kw = "if"
		}
		fmt.Fprintf(&b, "        %s op == %d:\n            pc = self.step_%d(pc)\n", kw, i, i)
	}
	b.WriteString("        else:\n            raise Unknown(op)\n")

	mod, err := syntax.ParseModule(b.String())
	if err != nil {
		t.Fatalf("ParseModule: %v", err)
	}
	data, err := Marshal(mod, "")
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	got, _, err := Unmarshal(data)
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if !hash.Equal(mod, got) {
		t.Error("decoded dispatch loop differs structurally")
	}
}

func TestMarshalDeterministic(t *testing.T) {
	mod, err := syntax.ParseModule(sample)
	if err != nil {
		t.Fatalf("ParseModule: %v", err)
	}
	a, err := Marshal(mod, "r")
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	b, err := Marshal(syntax.Clone(mod).(*syntax.Module), "r")
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if !bytes.Equal(a, b) {
		t.Error("encoding is not deterministic")
	}
}

func TestUnmarshalRejectsVersion(t *testing.T) {
	data, err := cborEncMode.Marshal(&Envelope{Version: FormatVersion + 1, Tree: &Node{Kind: "Module"}})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	_, _, err = Unmarshal(data)
	if err == nil || !strings.Contains(err.Error(), "unsupported format version") {
		t.Errorf("got %v, want version error", err)
	}
}

func TestUnmarshalErrors(t *testing.T) {
	tests := []struct {
		name string
		env  *Envelope
		want string
	}{
		{"no tree", &Envelope{Version: FormatVersion}, "no tree"},
		{"root not module", &Envelope{Version: FormatVersion, Tree: &Node{Kind: "Pass"}}, "want Module"},
		{"unknown kind", &Envelope{Version: FormatVersion, Tree: &Node{
			Kind: "Module",
			Kids: map[string][]*Node{"body": {{Kind: "Lambda", Line: 3}}},
		}}, "unknown node kind"},
		{"expression in statement slot", &Envelope{Version: FormatVersion, Tree: &Node{
			Kind: "Module",
			Kids: map[string][]*Node{"body": {{Kind: "Name"}}},
		}}, "non-statement"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			data, err := cborEncMode.Marshal(tc.env)
			if err != nil {
				t.Fatalf("marshal: %v", err)
			}
			_, _, err = Unmarshal(data)
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Errorf("got %v, want error containing %q", err, tc.want)
			}
		})
	}

	if _, _, err := Unmarshal([]byte{0xff, 0x00}); err == nil {
		t.Error("expected error for malformed CBOR")
	}
}

func TestEnvelopeIsPlainCBOR(t *testing.T) {
	mod, err := syntax.ParseModule("x = 1\n")
	if err != nil {
		t.Fatalf("ParseModule: %v", err)
	}
	data, err := Marshal(mod, "")
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var generic map[string]interface{}
	if err := cbor.Unmarshal(data, &generic); err != nil {
		t.Fatalf("generic decode: %v", err)
	}
	if _, ok := generic["tree"]; !ok {
		t.Errorf("envelope keys: %v", generic)
	}
	if _, ok := generic["run"]; ok {
		t.Error("empty run id should be omitted")
	}
}
