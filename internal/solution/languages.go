package solution

// Language describes a code.golf language
type Language struct {
	Name      string
	Extension string
}

// Languages maps code.golf language ids to their display name and file extension
var Languages = map[string]Language{
	"fish":       {"><>", "fish"},
	"assembly":   {"Assembly", "asm"},
	"awk":        {"AWK", "awk"},
	"bash":       {"Bash", "sh"},
	"basic":      {"BASIC", "bas"},
	"berry":      {"Berry", "brr"},
	"brainfuck":  {"Brainfuck", "bf"},
	"c":          {"C", "c"},
	"c-sharp":    {"C#", "cs"},
	"cpp":        {"C++", "cpp"},
	"cobol":      {"COBOL", "cob"},
	"crystal":    {"Crystal", "cr"},
	"d":          {"D", "d"},
	"dart":       {"Dart", "dart"},
	"elixir":     {"Elixir", "ex"},
	"f-sharp":    {"F#", "fs"},
	"factor":     {"Factor", "factor"},
	"forth":      {"Forth", "fth"},
	"fortran":    {"Fortran", "f"},
	"go":         {"Go", "go"},
	"golfscript": {"GolfScript", "gs"},
	"haskell":    {"Haskell", "hs"},
	"hexagony":   {"Hexagony", "hxg"},
	"j":          {"J", "ijs"},
	"janet":      {"Janet", "janet"},
	"java":       {"Java", "java"},
	"javascript": {"JavaScript", "js"},
	"julia":      {"Julia", "jl"},
	"k":          {"K", "k"},
	"lisp":       {"Lisp", "lsp"},
	"lua":        {"Lua", "lua"},
	"nim":        {"Nim", "nim"},
	"ocaml":      {"OCaml", "ml"},
	"pascal":     {"Pascal", "pas"},
	"perl":       {"Perl", "pl"},
	"php":        {"PHP", "php"},
	"powershell": {"PowerShell", "ps1"},
	"prolog":     {"Prolog", "pl"},
	"python":     {"Python", "py"},
	"r":          {"R", "r"},
	"raku":       {"Raku", "raku"},
	"ruby":       {"Ruby", "rb"},
	"rust":       {"Rust", "rs"},
	"sed":        {"sed", "sed"},
	"sql":        {"SQL", "sql"},
	"swift":      {"Swift", "swift"},
	"tcl":        {"Tcl", "tcl"},
	"tex":        {"TeX", "tex"},
	"v":          {"V", "v"},
	"viml":       {"VimL", "vim"},
	"wren":       {"Wren", "wren"},
	"zig":        {"Zig", "zig"},
}

// Extension returns the file extension for a language id. Unknown languages
// use the id itself.
func Extension(lang string) string {
	if l, ok := Languages[lang]; ok {
		return l.Extension
	}
	return lang
}
