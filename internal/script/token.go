// Package script reads and writes the dialogue-script text format.
//
// A script is a list of entries, each introduced by a "[KEY]" header line.
// An entry body mixes plain text with commands such as
//
//	$Window(PID_001, Left)Hello there.$Wait(30)
//
// Parse recognizes the commands that name an entity (Window, Anim, Alias)
// and keeps every other command as an opaque Command that packs back to its
// original bytes.
package script

// Token is one element of an entry body. The set of implementations is
// closed: Text, Window, Animation, Alias and Command.
type Token interface {
	isToken()
}

// Text is a run of literal dialogue text, unescaped.
type Text struct {
	Value string
}

// Window opens a speech window; Speaker is the speaking entity's identifier.
type Window struct {
	Name    string // "Window" or "Window2"
	Speaker string
	Args    []string // arguments after the speaker
}

// Animation plays an animation on Target.
type Animation struct {
	Target string
	Args   []string
}

// Alias shows Displayed as the name of the entity Actual.
type Alias struct {
	Displayed string
	Actual    string
	Args      []string
}

// Command is any other command. Raw holds the exact source text when the
// command came from Parse; Pack writes Raw verbatim when it is set and
// rebuilds the command from Name and Args otherwise.
//
// NoParen only picks the spelling "$Name" over "$Name()". When the text that
// follows would run into the name or start an argument list, Pack writes
// "$Name()" instead; both spellings denote the same command.
type Command struct {
	Name    string
	Args    []string
	NoParen bool // written as "$Name" with no argument list
	Raw     string
}

func (Text) isToken()      {}
func (Window) isToken()    {}
func (Animation) isToken() {}
func (Alias) isToken()     {}
func (Command) isToken()   {}

const (
	cmdWindow    = "Window"
	cmdWindow2   = "Window2"
	cmdAnimation = "Anim"
	cmdAlias     = "Alias"
)

// Entry is one keyed message of a script.
type Entry struct {
	Key    string
	Tokens []Token
}

// Script is an ordered list of entries with unique keys.
type Script struct {
	Entries []Entry
}

// Entry returns the entry with the given key.
func (s *Script) Entry(key string) (*Entry, bool) {
	for i := range s.Entries {
		if s.Entries[i].Key == key {
			return &s.Entries[i], true
		}
	}
	return nil, false
}

// Keys returns entry keys in order.
func (s *Script) Keys() []string {
	keys := make([]string, len(s.Entries))
	for i, e := range s.Entries {
		keys[i] = e.Key
	}
	return keys
}
