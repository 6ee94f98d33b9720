// Package ast defines the expression tree produced by the parser.
package ast

// Node is the interface implemented by all AST nodes.
type Node interface {
	Kind() string
}

// --- Expr is the interface for all expression nodes ---

type Expr interface {
	Node
	exprNode() // sealed marker
}

// --- Atom is an indivisible leaf: integer, float or symbol ---

type Atom interface {
	Expr
	atomNode() // sealed marker
}

// --- Atoms ---

type Int struct {
	Value int64
}

func (n *Int) Kind() string { return "Int" }
func (n *Int) exprNode()    {}
func (n *Int) atomNode()    {}

type Float struct {
	Value float64
}

func (n *Float) Kind() string { return "Float" }
func (n *Float) exprNode()    {}
func (n *Float) atomNode()    {}

type Symbol struct {
	Name string
}

func (n *Symbol) Kind() string { return "Symbol" }
func (n *Symbol) exprNode()    {}
func (n *Symbol) atomNode()    {}

// --- Forms ---

// List is a parenthesized form. The head, if any, is Items[0].
type List struct {
	Items []Expr
}

func (n *List) Kind() string { return "List" }
func (n *List) exprNode()    {}

// Head returns the first item of the form, or nil for ().
func (n *List) Head() Expr {
	if len(n.Items) == 0 {
		return nil
	}
	return n.Items[0]
}

// Operands returns every item after the head.
func (n *List) Operands() []Expr {
	if len(n.Items) < 2 {
		return nil
	}
	return n.Items[1:]
}

// HeadSymbol returns the head's name when the head is a symbol.
func (n *List) HeadSymbol() (string, bool) {
	sym, ok := n.Head().(*Symbol)
	if !ok {
		return "", false
	}
	return sym.Name, true
}

// Equal reports whether two expression trees are structurally identical.
func Equal(a, b Expr) bool {
	switch x := a.(type) {
	case *Int:
		y, ok := b.(*Int)
		return ok && x.Value == y.Value
	case *Float:
		y, ok := b.(*Float)
		return ok && x.Value == y.Value
	case *Symbol:
		y, ok := b.(*Symbol)
		return ok && x.Name == y.Name
	case *List:
		y, ok := b.(*List)
		if !ok || len(x.Items) != len(y.Items) {
			return false
		}
		for i := range x.Items {
			if !Equal(x.Items[i], y.Items[i]) {
				return false
			}
		}
		return true
	}
	return a == nil && b == nil
}

// Sym is shorthand for &Symbol{Name: name}.
func Sym(name string) *Symbol { return &Symbol{Name: name} }

// NewList builds a form from its items.
func NewList(items ...Expr) *List { return &List{Items: items} }
