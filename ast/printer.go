package ast

import (
	"fmt"
	"strings"
)

// Sprint renders a node as a parenthesized prefix form. It is used by tests
// and by the language server's debug output; the format is not stable.
func Sprint(n Node) string {
	var sb strings.Builder
	writeNode(&sb, n)
	return sb.String()
}

func writeNode(sb *strings.Builder, n Node) {
	switch n := n.(type) {
	case nil:
		sb.WriteString("nil")
	case *Assign:
		fmt.Fprintf(sb, "(= %s ", n.Name.Lexeme)
		writeNode(sb, n.Value)
		sb.WriteString(")")
	case *Binary:
		writeForm(sb, n.Operator.Lexeme, n.Left, n.Right)
	case *Logical:
		writeForm(sb, n.Operator.Lexeme, n.Left, n.Right)
	case *Unary:
		writeForm(sb, n.Operator.Lexeme, n.Right)
	case *Grouping:
		writeForm(sb, "group", n.Expression)
	case *Literal:
		switch v := n.Value.(type) {
		case nil:
			sb.WriteString("nil")
		case string:
			fmt.Fprintf(sb, "%q", v)
		default:
			fmt.Fprintf(sb, "%v", v)
		}
	case *Variable:
		sb.WriteString(n.Name.Lexeme)
	case *Self:
		sb.WriteString("self")
	case *Super:
		if n.Method != nil {
			fmt.Fprintf(sb, "super.%s", n.Method.Lexeme)
		} else {
			sb.WriteString("super")
		}
	case *Get:
		sb.WriteString("(. ")
		writeNode(sb, n.Object)
		fmt.Fprintf(sb, " %s)", n.Name.Lexeme)
	case *Set:
		sb.WriteString("(.= ")
		writeNode(sb, n.Object)
		fmt.Fprintf(sb, " %s ", n.Name.Lexeme)
		writeNode(sb, n.Value)
		sb.WriteString(")")
	case *Call:
		sb.WriteString("(call ")
		writeNode(sb, n.Callee)
		for _, arg := range n.Args {
			sb.WriteString(" ")
			writeNode(sb, arg)
		}
		for _, arg := range n.Named {
			fmt.Fprintf(sb, " %s:", arg.Name.Lexeme)
			writeNode(sb, arg.Value)
		}
		sb.WriteString(")")
	case *List:
		exprs := make([]Node, len(n.Elements))
		for i, e := range n.Elements {
			exprs[i] = e
		}
		writeForm(sb, "list", exprs...)
	case *Lambda:
		fmt.Fprintf(sb, "(fun %s (", n.FunctionName())
		for i, p := range n.Params {
			if i > 0 {
				sb.WriteString(" ")
			}
			if p.Variadic {
				sb.WriteString("...")
			}
			fmt.Fprintf(sb, "%s:%s", p.Name.Lexeme, p.Type.Lexeme)
			if p.Default != nil {
				sb.WriteString("=")
				writeNode(sb, p.Default)
			}
		}
		sb.WriteString(")")
		writeStmts(sb, n.Body)
		sb.WriteString(")")
	case *Block:
		sb.WriteString("(block")
		writeStmts(sb, n.Statements)
		sb.WriteString(")")
	case *ClassDecl:
		fmt.Fprintf(sb, "(class %s", n.Name.Lexeme)
		for _, s := range n.Superclasses {
			fmt.Fprintf(sb, " <%s", s.Name.Lexeme)
		}
		for _, m := range n.Methods {
			sb.WriteString(" ")
			writeNode(sb, m)
		}
		sb.WriteString(")")
	case *Expression:
		writeNode(sb, n.Expression)
	case *Function:
		writeNode(sb, n.Lambda)
	case *If:
		sb.WriteString("(if ")
		writeNode(sb, n.Condition)
		sb.WriteString(" ")
		writeNode(sb, n.Then)
		if n.Else != nil {
			sb.WriteString(" ")
			writeNode(sb, n.Else)
		}
		sb.WriteString(")")
	case *For:
		fmt.Fprintf(sb, "(for %s ", n.Name.Lexeme)
		writeNode(sb, n.Iterable)
		sb.WriteString(" ")
		writeNode(sb, n.Body)
		sb.WriteString(")")
	case *While:
		writeForm(sb, "while", n.Condition, n.Body)
	case *Return:
		if n.Value == nil {
			sb.WriteString("(return)")
		} else {
			writeForm(sb, "return", n.Value)
		}
	case *Var:
		fmt.Fprintf(sb, "(var %s", n.Name.Lexeme)
		if n.Initializer != nil {
			sb.WriteString(" ")
			writeNode(sb, n.Initializer)
		}
		sb.WriteString(")")
	default:
		fmt.Fprintf(sb, "<%T>", n)
	}
}

func writeForm(sb *strings.Builder, head string, parts ...Node) {
	sb.WriteString("(")
	sb.WriteString(head)
	for _, part := range parts {
		sb.WriteString(" ")
		writeNode(sb, part)
	}
	sb.WriteString(")")
}

func writeStmts(sb *strings.Builder, stmts []Stmt) {
	for _, s := range stmts {
		sb.WriteString(" ")
		writeNode(sb, s)
	}
}
