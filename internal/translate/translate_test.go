package translate

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"astra-msgdb/internal/archive"
	"astra-msgdb/internal/entity"
	"astra-msgdb/internal/msgdb"
	"astra-msgdb/internal/script"
)

type mapLookup map[string]string

func (m mapLookup) Message(key string) (string, bool) {
	v, ok := m[key]
	return v, ok
}

func TestSubstituteSelective(t *testing.T) {
	s, err := script.Parse("[MID_Talk]\n$Window(PID_001)Hi\n[MID_Other]\n$Window(PID_999)Hi\n")
	if err != nil {
		t.Fatal(err)
	}

	n := Substitute(s, Dictionary{"001": "Alear"})
	if n != 1 {
		t.Errorf("replaced = %d, want 1", n)
	}

	talk, _ := s.Entry("MID_Talk")
	want := []script.Token{
		script.Window{Name: "Window", Speaker: "Alear"},
		script.Text{Value: "Hi"},
	}
	if !reflect.DeepEqual(talk.Tokens, want) {
		t.Errorf("MID_Talk = %#v", talk.Tokens)
	}

	other, _ := s.Entry("MID_Other")
	if w := other.Tokens[0].(script.Window); w.Speaker != "PID_999" {
		t.Errorf("unmatched speaker changed to %q", w.Speaker)
	}
}

func TestSubstituteOnlyIdentifierFields(t *testing.T) {
	s, err := script.Parse("[K]\n$Anim(Lueur, Lueur)$Alias(Lueur, Lueur)$Icon(Lueur)Lueur\n")
	if err != nil {
		t.Fatal(err)
	}
	Substitute(s, Dictionary{"Lueur": "Alear"})

	e, _ := s.Entry("K")
	want := []script.Token{
		script.Animation{Target: "Alear", Args: []string{"Lueur"}},
		script.Alias{Displayed: "Lueur", Actual: "Alear"},
		script.Command{Name: "Icon", Args: []string{"Lueur"}, Raw: "$Icon(Lueur)"},
		script.Text{Value: "Lueur"},
	}
	if !reflect.DeepEqual(e.Tokens, want) {
		t.Errorf("tokens:\n got %#v\nwant %#v", e.Tokens, want)
	}
}

func TestDictionaryResolve(t *testing.T) {
	d := Dictionary{"001": "Alear", "PID_777": "Exact"}
	tests := []struct {
		id   string
		want string
		ok   bool
	}{
		{"001", "Alear", true},
		{"PID_001", "Alear", true},
		{"GID_001", "Alear", true},
		{"PID_777", "Exact", true},
		{"MID_001", "", false},
		{"PID_", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := d.Resolve(tt.id)
		if got != tt.want || ok != tt.ok {
			t.Errorf("Resolve(%q) = %q, %v; want %q, %v", tt.id, got, ok, tt.want, tt.ok)
		}
	}
}

func TestBuildDictionary(t *testing.T) {
	tables := entity.Tables{
		Persons: []entity.Person{
			{PID: "PID_001", Name: "MPID_Lueur"},
			{PID: "PID_", Name: "MPID_Lueur"},
			{PID: "NPC_002", Name: "MPID_Lueur"},
			{PID: "PID_003", Name: "MPID_Unwritten"},
			{PID: "PID_Shared", Name: "MPID_Shared"},
		},
		Gods: []entity.God{
			{GID: "GID_Marth", MID: "MGID_Marth"},
			{GID: "GID_Shared", MID: "MGID_Shared"},
		},
	}
	lookup := mapLookup{
		"MPID_Lueur":  "Alear",
		"MPID_Shared": "Person",
		"MGID_Marth":  "Marth",
		"MGID_Shared": "God",
	}

	got := BuildDictionary(Kinds(tables), lookup)
	want := Dictionary{"001": "Alear", "Marth": "Marth", "Shared": "God"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("BuildDictionary = %v, want %v", got, want)
	}
}

func newTranslator() *Translator {
	db := msgdb.Build([]msgdb.Archive{
		archive.New("gamedata", map[string]string{"MPID_Lueur": "Alear", "MGID_Marth": "Marth"}),
	}, "")
	return NewTranslator(db)
}

var tables = entity.Tables{
	Persons: []entity.Person{{PID: "PID_Lueur", Name: "MPID_Lueur"}},
	Gods:    []entity.God{{GID: "GID_Marth", MID: "MGID_Marth"}},
}

func TestTranslate(t *testing.T) {
	src := "[MID_A]\n$Window(Lueur)Ready, $Window2(\"Marth\", Right)\\$5?\n[MID_B]\n$Alias(???, Marth)$Wait(10)\n"
	got, err := newTranslator().Translate(src, tables)
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	want := "[MID_A]\n$Window(Alear)Ready, $Window2(Marth, Right)\\$5?\n[MID_B]\n$Alias(???, Marth)$Wait(10)\n"
	if got != want {
		t.Errorf("Translate =\n%q\nwant\n%q", got, want)
	}
}

func TestTranslateQuotesSubstitutedNames(t *testing.T) {
	lookup := mapLookup{"MPID_Lueur": "Alear (Divine Dragon)"}
	got, err := NewTranslator(lookup).Translate("[K]\n$Window(Lueur)Hi", tables)
	if err != nil {
		t.Fatal(err)
	}
	if got != "[K]\n$Window(\"Alear (Divine Dragon)\")Hi\n" {
		t.Errorf("Translate = %q", got)
	}
}

func TestTranslateParseFailure(t *testing.T) {
	_, err := newTranslator().Translate("no header\n", tables)
	if !errors.Is(err, ErrParse) {
		t.Fatalf("err = %v, want ErrParse", err)
	}
	var pe *script.ParseError
	if !errors.As(err, &pe) || pe.Line != 1 {
		t.Errorf("parse error position lost: %v", err)
	}
	if !strings.HasPrefix(err.Error(), "parse script: ") {
		t.Errorf("err = %q", err.Error())
	}
}
