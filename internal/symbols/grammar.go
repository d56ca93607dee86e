package symbols

import (
	"bufio"
	"bytes"
	"regexp"
	"strings"
)

var (
	// "    18000A2B0    0 ?napi_create_string@@YA..." from dumpbin /imports.
	importLinePattern = regexp.MustCompile(`^[ \t]*[0-9A-F]+[ \t]+0[ \t]+([^ \t]+)$`)
	// `is :- "int __cdecl Foo::Bar(int)"` from undname.
	demangledPattern = regexp.MustCompile(`is :- "([^"]+)"`)
	namePattern      = regexp.MustCompile(`([\w:~]+)\(`)
)

// ParseImportLine returns the decorated symbol on an import-lister line.
// Banner, header, blank and non-ordinal-0 lines report ok=false.
func ParseImportLine(line string) (string, bool) {
	line = strings.TrimRight(line, " \t\r")
	match := importLinePattern.FindStringSubmatch(line)
	if match == nil {
		return "", false
	}
	return match[1], true
}

// ParseImportListing extracts every decorated symbol from import-lister output.
func ParseImportListing(output []byte) []string {
	var decorated []string
	scanner := bufio.NewScanner(bytes.NewReader(output))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		if symbol, ok := ParseImportLine(scanner.Text()); ok {
			decorated = append(decorated, symbol)
		}
	}
	return decorated
}

// ParseDemangled returns the readable signature from demangler output.
func ParseDemangled(output []byte) (string, bool) {
	match := demangledPattern.FindSubmatch(output)
	if match == nil {
		return "", false
	}
	return string(match[1]), true
}

// ExtractName returns the identifier immediately preceding the first "(" in
// signature, or the whole signature when there is none.
func ExtractName(signature string) string {
	match := namePattern.FindStringSubmatch(signature)
	if match == nil {
		return signature
	}
	return match[1]
}
