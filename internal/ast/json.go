package ast

import (
	"veon/internal/span"
)

// attrs is the JSON shape of one node: a "kind" tag, its "span", and
// node-specific fields.
type attrs map[string]any

func node(kind string, s span.Span) attrs {
	return attrs{"kind": kind, "span": s}
}

// with sets key to v. Child nodes are converted in place; a nil child leaves
// the key out of the dump.
func (a attrs) with(key string, v any) attrs {
	if v == nil {
		return a
	}
	if n, ok := v.(Node); ok {
		v = NodeToMap(n)
	}
	a[key] = v
	return a
}

func list[T Node](nodes []T) []any {
	out := make([]any, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, NodeToMap(n))
	}
	return out
}

// NodeToMap converts an AST node into plain maps and slices for encoding/json.
// Every node carries a "kind" field naming its Go type.
func NodeToMap(n Node) map[string]any {
	if n == nil {
		return nil
	}
	switch n := n.(type) {
	case *Program:
		return node("Program", n.Span).with("filename", n.Filename).with("body", list(n.Body))

	case *IdentExpr:
		return node("IdentExpr", n.Span).with("name", n.Name)
	case *NumberLiteral:
		return node("NumberLiteral", n.Span).with("value", n.Value)
	case *StringLiteral:
		return node("StringLiteral", n.Span).with("value", n.Value)
	case *BoolLiteral:
		return node("BoolLiteral", n.Span).with("value", n.Value)
	case *NullLiteral:
		return node("NullLiteral", n.Span)
	case *ThisExpr:
		return node("ThisExpr", n.Span)
	case *UnaryExpr:
		return node("UnaryExpr", n.Span).with("op", n.Op.String()).with("operand", n.Operand)
	case *BinaryExpr:
		return node("BinaryExpr", n.Span).with("op", n.Op.String()).with("left", n.Left).with("right", n.Right)
	case *LogicalExpr:
		return node("LogicalExpr", n.Span).with("op", n.Op.String()).with("left", n.Left).with("right", n.Right)
	case *AssignExpr:
		return node("AssignExpr", n.Span).with("target", n.Target).with("value", n.Value)
	case *CallExpr:
		return node("CallExpr", n.Span).with("callee", n.Callee).with("args", list(n.Args))
	case *IndexExpr:
		return node("IndexExpr", n.Span).with("object", n.Object).with("index", n.Index)
	case *MemberExpr:
		return node("MemberExpr", n.Span).with("object", n.Object).with("property", n.Property)
	case *ArrayLiteral:
		return node("ArrayLiteral", n.Span).with("elements", list(n.Elements))

	case *ExprStmt:
		return node("ExprStmt", n.Span).with("expr", n.Expr)
	case *LetStmt:
		return node("LetStmt", n.Span).with("name", n.Name).with("init", n.Init)
	case *ReturnStmt:
		return node("ReturnStmt", n.Span).with("value", n.Value)
	case *BlockStmt:
		return node("BlockStmt", n.Span).with("stmts", list(n.Stmts))
	case *IfStmt:
		return node("IfStmt", n.Span).with("condition", n.Condition).with("then", n.Then).with("else", n.Else)
	case *WhileStmt:
		return node("WhileStmt", n.Span).with("condition", n.Condition).with("body", n.Body)
	case *ForStmt:
		return node("ForStmt", n.Span).
			with("init", n.Init).
			with("condition", n.Condition).
			with("update", n.Update).
			with("body", n.Body)
	case *FunDecl:
		return node("FunDecl", n.Span).with("name", n.Name).with("params", n.Params).with("body", n.Body)
	case *ClassDecl:
		return node("ClassDecl", n.Span).with("name", n.Name).with("methods", list(n.Methods))
	}
	return attrs{"kind": "Unknown"}
}
