package cli

const usage = `Usage:
  addonimports [--root PATH] [--config PATH] [--format csv|json] [--jobs N] [--timeout DURATION]
               [--cache-dir PATH] [--cache-readonly] [--lister PATH] [--demangler PATH] [--host IMAGE] [--verbose]

Inventories the host-image imports of every native addon (*.node) under
<root>/node_modules and prints one row per imported signature.

Options:
  --root PATH          Project root containing node_modules (default: .)
  --config PATH        Config file (default: .addonimports.yml|.yaml|.toml or addonimports.json in root)
  --format csv|json    Output format (default: csv)
  --jobs N             Packages inventoried concurrently (default: 1)
  --timeout DURATION   Time limit per tool invocation, e.g. 30s (default: none)
  --cache-dir PATH     Cache introspection results under PATH
  --cache-readonly     Use the cache without writing new entries
  --lister PATH        Import lister executable (default: dumpbin)
  --demangler PATH     Demangler executable (default: undname)
  --host IMAGE         Host image whose imports are listed (default: node.exe)
  --verbose            Log progress to stderr
  -h, --help           Show this help text
`

func Usage() string {
	return usage
}
