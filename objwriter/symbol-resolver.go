package objwriter

import (
	"fmt"
	"strings"

	"github.com/pattyshack/nuthatch/object"
)

// A symbol flattened into its base symbol plus a byte offset.
type Resolution struct {
	// nil only for a degenerate self-referencing offset symbol, which is its
	// own base.
	Base *object.RootSymbol

	BaseName string
	Offset   int64

	// Number of indirect aliases along the chain.  Only used for diagnostic
	// naming, never for address arithmetic.
	Indirections int
}

func (res Resolution) DiagnosticName() string {
	name := res.BaseName
	if res.Offset != 0 {
		name = fmt.Sprintf("%s%+d", name, res.Offset)
	}
	return name + strings.Repeat("@indirect", res.Indirections)
}

// Resolves symbol into (base symbol, offset) by structural recursion over the
// offset / embedded symbol chain.  Malformed chains (nil symbols, containers
// that are not directly nameable, cycles) are reported as ErrInvalidProgram.
func ResolveSymbol(symbol object.Symbol) (Resolution, error) {
	return resolveSymbol(symbol, map[object.Symbol]struct{}{})
}

func resolveSymbol(
	symbol object.Symbol,
	visiting map[object.Symbol]struct{},
) (
	Resolution,
	error,
) {
	if isNilSymbol(symbol) {
		return Resolution{}, fmt.Errorf(
			"%w: cannot resolve nil symbol",
			ErrInvalidProgram)
	}

	_, ok := visiting[symbol]
	if ok {
		return Resolution{}, invalidProgram(
			symbol.Loc(),
			"symbol (%s) is part of a reference cycle",
			symbol.SymbolName())
	}
	visiting[symbol] = struct{}{}

	switch sym := symbol.(type) {
	case *object.RootSymbol:
		if sym.Node == nil {
			return Resolution{}, invalidProgram(
				sym.Loc(),
				"root symbol (%s) has no node",
				sym.Name)
		}
		return Resolution{
			Base:     sym,
			BaseName: sym.Name,
		}, nil

	case *object.OffsetSymbol:
		if sym.Target == object.Symbol(sym) {
			if sym.Offset != 0 {
				return Resolution{}, invalidProgram(
					sym.Loc(),
					"self-referencing symbol (%s) has non-zero offset (%d)",
					sym.Name,
					sym.Offset)
			}
			return Resolution{BaseName: sym.Name}, nil
		}

		if sym.Target == nil {
			return Resolution{}, invalidProgram(
				sym.Loc(),
				"offset symbol (%s) has no target",
				sym.Name)
		}

		res, err := resolveSymbol(sym.Target, visiting)
		if err != nil {
			return Resolution{}, err
		}

		res.Offset += sym.Offset
		if sym.Indirect {
			res.Indirections++
		}
		return res, nil

	case *object.EmbeddedSymbol:
		if sym.Container == nil {
			return Resolution{}, invalidProgram(
				sym.Loc(),
				"embedded symbol (%s) has no containing node",
				sym.Name)
		}

		if sym.Container.Symbol == nil {
			return Resolution{}, invalidProgram(
				sym.Loc(),
				"embedded symbol (%s)'s containing node (%s) is not directly nameable",
				sym.Name,
				sym.Container.Name)
		}

		res, err := resolveSymbol(sym.Container.Symbol, visiting)
		if err != nil {
			return Resolution{}, err
		}

		res.Offset += sym.Offset
		return res, nil

	default:
		return Resolution{}, invalidProgram(
			symbol.Loc(),
			"unexpected symbol variant (%T)",
			symbol)
	}
}

func isNilSymbol(symbol object.Symbol) bool {
	switch sym := symbol.(type) {
	case nil:
		return true
	case *object.RootSymbol:
		return sym == nil
	case *object.OffsetSymbol:
		return sym == nil
	case *object.EmbeddedSymbol:
		return sym == nil
	default:
		return false
	}
}
