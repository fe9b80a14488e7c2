package ui

// Action is what a key does in the tree view.
type Action string

const (
	ActionNone        Action = ""
	ActionUp          Action = "up"
	ActionDown        Action = "down"
	ActionPageUp      Action = "page_up"
	ActionPageDown    Action = "page_down"
	ActionTop         Action = "top"
	ActionBottom      Action = "bottom"
	ActionToggle      Action = "toggle"
	ActionExpand      Action = "expand"
	ActionCollapse    Action = "collapse"
	ActionExpandAll   Action = "expand_all"
	ActionCollapseAll Action = "collapse_all"
	ActionSearch      Action = "search"
	ActionNextMatch   Action = "next_match"
	ActionPrevMatch   Action = "prev_match"
	ActionSearchMode  Action = "search_mode"
	ActionRegex       Action = "regex"
	ActionCase        Action = "case"
	ActionGoTo        Action = "goto"
	ActionCopyValue   Action = "copy_value"
	ActionCopySubtree Action = "copy_subtree"
	ActionCopyPath    Action = "copy_path"
	ActionRaw         Action = "raw"
	ActionSummarize   Action = "summarize"
	ActionAsk         Action = "ask"
	ActionSchema      Action = "schema"
	ActionExplain     Action = "explain"
	ActionNextModel   Action = "next_model"
	ActionHelp        Action = "help"
	ActionClear       Action = "clear"
	ActionQuit        Action = "quit"
)

// KeyBindings maps key strings, as reported by tea.KeyMsg.String, to actions.
// Digits 1-9 are handled separately and expand to that depth.
var KeyBindings = map[string]Action{
	"up":     ActionUp,
	"k":      ActionUp,
	"down":   ActionDown,
	"j":      ActionDown,
	"pgup":   ActionPageUp,
	"pgdown": ActionPageDown,
	"home":   ActionTop,
	"end":    ActionBottom,
	"G":      ActionBottom,
	"enter":  ActionToggle,
	"space":  ActionToggle,
	"right":  ActionExpand,
	"l":      ActionExpand,
	"left":   ActionCollapse,
	"h":      ActionCollapse,
	"e":      ActionExpandAll,
	"c":      ActionCollapseAll,
	"/":      ActionSearch,
	"n":      ActionNextMatch,
	"N":      ActionPrevMatch,
	"f":      ActionSearchMode,
	"R":      ActionRegex,
	"C":      ActionCase,
	":":      ActionGoTo,
	"g":      ActionGoTo,
	"y":      ActionCopyValue,
	"Y":      ActionCopySubtree,
	"p":      ActionCopyPath,
	"r":      ActionRaw,
	"S":      ActionSummarize,
	"a":      ActionAsk,
	"T":      ActionSchema,
	"x":      ActionExplain,
	"m":      ActionNextModel,
	"?":      ActionHelp,
	"esc":    ActionClear,
	"q":      ActionQuit,
	"ctrl+c": ActionQuit,
}

// HelpLines describes the bindings for the help overlay.
var HelpLines = [][2]string{
	{"↑/k ↓/j pgup pgdown home end", "move"},
	{"enter/space", "toggle node"},
	{"→/l ←/h", "expand / collapse or go to parent"},
	{"e c 1-9", "expand all / collapse all / expand to depth"},
	{"/ n N", "search, next and previous match"},
	{"f R C", "search keys/values/both, regex, case sensitivity"},
	{": g", "go to a path like $['a'][0]"},
	{"y Y p", "copy value / subtree / path"},
	{"r", "raw JSON view"},
	{"S a T x", "AI summary / ask / schema / explain node"},
	{"m", "next AI model"},
	{"esc", "clear search, highlight and AI panel"},
	{"?", "help"},
	{"q", "quit"},
}

// ActionFor resolves a key string.
func ActionFor(key string) Action {
	if a, ok := KeyBindings[key]; ok {
		return a
	}
	return ActionNone
}
