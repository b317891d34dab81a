package sql

import (
	pg_query "github.com/pganalyze/pg_query_go/v6"
	"google.golang.org/protobuf/reflect/protoreflect"
)

// This file centralizes the generic AST helpers: traversal, value
// unwrapping, and node construction. The stage files (parser, resolver,
// pagination, serializer) still use pg_query's node types directly, so a
// parser swap touches them as well.

// walkNode visits n and then every node reachable from it, in document
// order. The visit callback may mutate the node it receives. Traversal
// stops at the first error.
func walkNode(n *pg_query.Node, visit func(*pg_query.Node) error) error {
	if n == nil {
		return nil
	}
	if err := visit(n); err != nil {
		return err
	}
	return walkChildren(n.ProtoReflect(), visit)
}

// walkChildren descends into every message-typed field of m, recursing
// through non-Node containers (Alias, ResTarget internals, and the like)
// until it reaches embedded Nodes.
func walkChildren(m protoreflect.Message, visit func(*pg_query.Node) error) error {
	var err error
	m.Range(func(fd protoreflect.FieldDescriptor, v protoreflect.Value) bool {
		if fd.Kind() != protoreflect.MessageKind {
			return true
		}
		if fd.IsMap() {
			return true
		}
		if fd.IsList() {
			list := v.List()
			for i := 0; i < list.Len(); i++ {
				if err = walkEmbedded(list.Get(i).Message(), visit); err != nil {
					return false
				}
			}
			return true
		}
		err = walkEmbedded(v.Message(), visit)
		return err == nil
	})
	return err
}

func walkEmbedded(m protoreflect.Message, visit func(*pg_query.Node) error) error {
	if node, ok := m.Interface().(*pg_query.Node); ok {
		return walkNode(node, visit)
	}
	return walkChildren(m, visit)
}

// stringValue unwraps a String node.
func stringValue(n *pg_query.Node) (string, bool) {
	s := n.GetString_()
	if s == nil {
		return "", false
	}
	return s.Sval, true
}

// intConstValue unwraps an integer A_Const.
func intConstValue(n *pg_query.Node) (int64, bool) {
	c := n.GetAConst()
	if c == nil || c.GetIsnull() {
		return 0, false
	}
	i := c.GetIval()
	if i == nil {
		return 0, false
	}
	return int64(i.Ival), true
}

func makeString(s string) *pg_query.Node {
	return &pg_query.Node{Node: &pg_query.Node_String_{String_: &pg_query.String{Sval: s}}}
}

func makeColumnRef(parts ...string) *pg_query.Node {
	fields := make([]*pg_query.Node, len(parts))
	for i, p := range parts {
		fields[i] = makeString(p)
	}
	return &pg_query.Node{Node: &pg_query.Node_ColumnRef{ColumnRef: &pg_query.ColumnRef{Fields: fields}}}
}

func makeIntConst(v int64) *pg_query.Node {
	return &pg_query.Node{Node: &pg_query.Node_AConst{AConst: &pg_query.A_Const{
		Val: &pg_query.A_Const_Ival{Ival: &pg_query.Integer{Ival: int32(v)}},
	}}}
}

func makeParamRef(number int32) *pg_query.Node {
	return &pg_query.Node{Node: &pg_query.Node_ParamRef{ParamRef: &pg_query.ParamRef{Number: number}}}
}

// makeEqualsParam builds the predicate `alias.column = $number`.
func makeEqualsParam(alias, column string, number int32) *pg_query.Node {
	return &pg_query.Node{Node: &pg_query.Node_AExpr{AExpr: &pg_query.A_Expr{
		Kind:  pg_query.A_Expr_Kind_AEXPR_OP,
		Name:  []*pg_query.Node{makeString("=")},
		Lexpr: makeColumnRef(alias, column),
		Rexpr: makeParamRef(number),
	}}}
}

// andCombine attaches pred to an existing boolean expression with AND,
// flattening into an existing AND list instead of nesting.
func andCombine(existing, pred *pg_query.Node) *pg_query.Node {
	if existing == nil {
		return pred
	}
	if be := existing.GetBoolExpr(); be != nil && be.Boolop == pg_query.BoolExprType_AND_EXPR {
		be.Args = append(be.Args, pred)
		return existing
	}
	return &pg_query.Node{Node: &pg_query.Node_BoolExpr{BoolExpr: &pg_query.BoolExpr{
		Boolop: pg_query.BoolExprType_AND_EXPR,
		Args:   []*pg_query.Node{existing, pred},
	}}}
}
