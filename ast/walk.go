package ast

// Inspect traverses the tree rooted at n in depth-first order, calling f
// for each node. When f returns false the node's children are skipped.
func Inspect(n Node, f func(Node) bool) {
	if n == nil || !f(n) {
		return
	}
	switch n := n.(type) {
	case *Assign:
		inspectExpr(n.Value, f)
	case *Binary:
		inspectExpr(n.Left, f)
		inspectExpr(n.Right, f)
	case *Logical:
		inspectExpr(n.Left, f)
		inspectExpr(n.Right, f)
	case *Unary:
		inspectExpr(n.Right, f)
	case *Grouping:
		inspectExpr(n.Expression, f)
	case *Get:
		inspectExpr(n.Object, f)
	case *Set:
		inspectExpr(n.Object, f)
		inspectExpr(n.Value, f)
	case *List:
		for _, e := range n.Elements {
			inspectExpr(e, f)
		}
	case *Call:
		inspectExpr(n.Callee, f)
		for _, e := range n.Args {
			inspectExpr(e, f)
		}
		for _, na := range n.Named {
			inspectExpr(na.Value, f)
		}
	case *Lambda:
		for _, p := range n.Params {
			inspectExpr(p.Default, f)
		}
		InspectAll(n.Body, f)
	case *Block:
		InspectAll(n.Statements, f)
	case *ClassDecl:
		for _, s := range n.Superclasses {
			Inspect(s, f)
		}
		for _, m := range n.Methods {
			Inspect(m, f)
		}
	case *Expression:
		inspectExpr(n.Expression, f)
	case *Function:
		Inspect(n.Lambda, f)
	case *If:
		inspectExpr(n.Condition, f)
		Inspect(n.Then, f)
		inspectStmt(n.Else, f)
	case *For:
		inspectExpr(n.Iterable, f)
		Inspect(n.Body, f)
	case *Return:
		inspectExpr(n.Value, f)
	case *Var:
		inspectExpr(n.Initializer, f)
	case *While:
		inspectExpr(n.Condition, f)
		Inspect(n.Body, f)
	}
}

// InspectAll calls Inspect on each statement in turn.
func InspectAll(stmts []Stmt, f func(Node) bool) {
	for _, s := range stmts {
		inspectStmt(s, f)
	}
}

func inspectExpr(e Expr, f func(Node) bool) {
	if e != nil {
		Inspect(e, f)
	}
}

func inspectStmt(s Stmt, f func(Node) bool) {
	if s != nil {
		Inspect(s, f)
	}
}
