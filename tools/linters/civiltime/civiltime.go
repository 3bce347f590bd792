// Package civiltime provides a linter that keeps dates and timestamps in UTC.
//
// Due dates, holidays and reminder send dates are civil dates stored as
// midnight UTC. Mixing in the process time zone shifts them by a day on
// hosts east or west of UTC, so the analyzer reports:
//
//	time.Now()           // without .UTC()
//	time.Local           // any reference
//	t.Local()            // conversion to the process zone
//
// A //nolint or //nolint:civiltime comment on the same or the previous line
// suppresses a report.
package civiltime

import (
	"go/ast"
	"go/types"
	"strings"

	"golang.org/x/tools/go/analysis"
	"golang.org/x/tools/go/types/typeutil"
)

const name = "civiltime"

// Analyzer reports uses of the process time zone.
var Analyzer = &analysis.Analyzer{
	Name: name,
	Doc:  "checks that times are read and built in UTC, never in the process time zone",
	Run:  run,
}

const (
	msgNow   = "time.Now() should be followed by .UTC() so civil dates do not depend on the host zone"
	msgLocal = "time.Local makes civil dates depend on the host zone; use time.UTC"
	msgToLoc = "Time.Local() converts to the host zone; keep times in UTC"
)

func run(pass *analysis.Pass) (any, error) {
	for _, file := range pass.Files {
		// time.Now() calls that are the receiver of .UTC().
		withUTC := make(map[*ast.CallExpr]bool)
		ast.Inspect(file, func(n ast.Node) bool {
			sel, ok := n.(*ast.SelectorExpr)
			if !ok || sel.Sel.Name != "UTC" {
				return true
			}
			if call, ok := sel.X.(*ast.CallExpr); ok && isTimeFunc(pass, call, "Now") {
				withUTC[call] = true
			}
			return true
		})

		ast.Inspect(file, func(n ast.Node) bool {
			switch n := n.(type) {
			case *ast.CallExpr:
				switch {
				case isTimeFunc(pass, n, "Now") && !withUTC[n]:
					report(pass, file, n, msgNow)
				case isTimeMethod(pass, n, "Local"):
					report(pass, file, n, msgToLoc)
				}
			case *ast.SelectorExpr:
				if v, ok := pass.TypesInfo.Uses[n.Sel].(*types.Var); ok && inTime(v) && v.Name() == "Local" {
					report(pass, file, n, msgLocal)
				}
			}
			return true
		})
	}
	return nil, nil
}

func inTime(obj types.Object) bool {
	return obj.Pkg() != nil && obj.Pkg().Path() == "time"
}

// isTimeFunc reports whether call is the package-level function time.<name>.
func isTimeFunc(pass *analysis.Pass, call *ast.CallExpr, name string) bool {
	fn := typeutil.StaticCallee(pass.TypesInfo, call)
	if fn == nil || !inTime(fn) || fn.Name() != name {
		return false
	}
	sig, ok := fn.Type().(*types.Signature)
	return ok && sig.Recv() == nil
}

// isTimeMethod reports whether call is the time.Time method <name>.
func isTimeMethod(pass *analysis.Pass, call *ast.CallExpr, name string) bool {
	fn := typeutil.StaticCallee(pass.TypesInfo, call)
	if fn == nil || !inTime(fn) || fn.Name() != name {
		return false
	}
	sig, ok := fn.Type().(*types.Signature)
	return ok && sig.Recv() != nil
}

func report(pass *analysis.Pass, file *ast.File, n ast.Node, msg string) {
	if hasNolintComment(pass, file, n) {
		return
	}
	pass.Reportf(n.Pos(), "%s", msg)
}

// hasNolintComment checks for a nolint comment on the node's line or the line before.
func hasNolintComment(pass *analysis.Pass, file *ast.File, n ast.Node) bool {
	line := pass.Fset.Position(n.Pos()).Line
	for _, cg := range file.Comments {
		for _, c := range cg.List {
			cl := pass.Fset.Position(c.Pos()).Line
			if cl != line && cl != line-1 {
				continue
			}
			text := strings.TrimSpace(strings.TrimPrefix(c.Text, "//"))
			if !strings.HasPrefix(text, "nolint") {
				continue
			}
			linters, scoped := strings.CutPrefix(text, "nolint:")
			if !scoped {
				return true
			}
			fields := strings.Fields(linters)
			if len(fields) == 0 {
				continue
			}
			for _, l := range strings.Split(fields[0], ",") {
				if l == name {
					return true
				}
			}
		}
	}
	return false
}
