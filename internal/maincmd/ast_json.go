package maincmd

import (
	"encoding/json"
	"fmt"

	"github.com/mna/anilang/lang/ast"
	"github.com/mna/anilang/lang/token"
	"github.com/mna/anilang/lang/value"
)

// jsonNode is the wire shape of one AST node: a "node" discriminator plus
// whatever fields that node kind needs, with child nodes left as raw
// messages decoded on demand. This JSON envelope is the CLI's own
// deliberately thin stand-in for a real AST encoder (out of scope for the
// core), not a format lang/ast itself knows about.
type jsonNode struct {
	Node string `json:"node"`

	// Literal
	Kind string          `json:"kind,omitempty"`
	Int  int64           `json:"int,omitempty"`
	Flt  float64         `json:"float,omitempty"`
	Bool bool            `json:"bool,omitempty"`
	Str  string          `json:"string,omitempty"`

	// Variable, Declaration, FnDeclaration, Interface
	Name string `json:"name,omitempty"`

	// Binary, Unary, Assignment
	Op string `json:"op,omitempty"`

	// Binary
	Left  json.RawMessage `json:"left,omitempty"`
	Right json.RawMessage `json:"right,omitempty"`

	// Unary
	Operand json.RawMessage `json:"operand,omitempty"`

	// Index
	Container json.RawMessage `json:"container,omitempty"`
	Index     json.RawMessage `json:"index,omitempty"`

	// List
	Elements []json.RawMessage `json:"elements,omitempty"`

	// Object
	Fields []jsonObjectField `json:"fields,omitempty"`

	// FnCall
	Callee json.RawMessage   `json:"callee,omitempty"`
	Args   []json.RawMessage `json:"args,omitempty"`

	// FnDeclaration (Body also used by Loop)
	Params []string        `json:"params,omitempty"`
	Body   json.RawMessage `json:"body,omitempty"`

	// Interface
	InstanceFields []string          `json:"instanceFields,omitempty"`
	Methods        []json.RawMessage `json:"methods,omitempty"`

	// Declaration, Assignment, Return
	Value json.RawMessage `json:"value,omitempty"`

	// Assignment
	Target json.RawMessage `json:"target,omitempty"`

	// If, Loop
	Cond json.RawMessage `json:"cond,omitempty"`
	Then json.RawMessage `json:"then,omitempty"`
	Else json.RawMessage `json:"else,omitempty"`

	// Block
	Stmts []json.RawMessage `json:"stmts,omitempty"`

	// ExprStmt
	X json.RawMessage `json:"x,omitempty"`
}

type jsonObjectField struct {
	Key   json.RawMessage `json:"key"`
	Value json.RawMessage `json:"value"`
}

// jsonProgram is the root document: a single top-level block.
type jsonProgram struct {
	Body jsonNode `json:"body"`
}

var opTokens = map[string]token.Token{
	"":   token.ILLEGAL,
	"+":  token.ADD,
	"-":  token.SUB,
	"*":  token.MUL,
	"/":  token.DIV,
	"%":  token.MOD,
	"^":  token.POW,
	"||": token.OR,
	"&&": token.AND,
	"<":  token.LT,
	"<=": token.LE,
	">":  token.GT,
	">=": token.GE,
	"==": token.EQL,
	"!=": token.NEQ,
}

func opToken(s string) (token.Token, error) {
	tok, ok := opTokens[s]
	if !ok {
		return token.ILLEGAL, fmt.Errorf("maincmd: unknown operator %q", s)
	}
	return tok, nil
}

func decodeLiteral(n *jsonNode) (*ast.Literal, error) {
	switch n.Kind {
	case "int":
		return &ast.Literal{Kind: value.KindInt, IntVal: n.Int}, nil
	case "float":
		return &ast.Literal{Kind: value.KindFloat, FloatVal: n.Flt}, nil
	case "bool":
		return &ast.Literal{Kind: value.KindBool, BoolVal: n.Bool}, nil
	case "string":
		return &ast.Literal{Kind: value.KindString, StrVal: n.Str}, nil
	case "null":
		return &ast.Literal{Kind: value.KindNull}, nil
	default:
		return nil, fmt.Errorf("maincmd: unknown literal kind %q", n.Kind)
	}
}

// decodeProgram parses a jsonProgram document into an *ast.Program.
func decodeProgram(data []byte) (*ast.Program, error) {
	var doc jsonProgram
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("maincmd: decoding program: %w", err)
	}
	block, err := decodeBlockNode(&doc.Body)
	if err != nil {
		return nil, err
	}
	return &ast.Program{Body: block}, nil
}

func decodeBlock(raw json.RawMessage) (*ast.Block, error) {
	var n jsonNode
	if err := json.Unmarshal(raw, &n); err != nil {
		return nil, fmt.Errorf("maincmd: decoding block: %w", err)
	}
	return decodeBlockNode(&n)
}

func decodeBlockNode(n *jsonNode) (*ast.Block, error) {
	stmts := make([]ast.Stmt, 0, len(n.Stmts))
	for _, raw := range n.Stmts {
		s, err := decodeStmt(raw)
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, s)
	}
	return &ast.Block{Stmts: stmts}, nil
}

func decodeStmt(raw json.RawMessage) (ast.Stmt, error) {
	n, err := decodeEnvelope(raw)
	if err != nil {
		return nil, err
	}
	switch n.Node {
	case "ExprStmt":
		x, err := decodeExpr(n.X)
		if err != nil {
			return nil, err
		}
		return &ast.ExprStmt{X: x}, nil
	case "Break":
		return &ast.Break{}, nil
	case "Return":
		v, err := decodeOptionalExpr(n.Value)
		if err != nil {
			return nil, err
		}
		return &ast.Return{Value: v}, nil
	default:
		// every expression node is also valid in statement position, wrapped
		// implicitly the way a trailing block expression is.
		x, err := decodeExpr(raw)
		if err != nil {
			return nil, fmt.Errorf("maincmd: unknown statement node %q", n.Node)
		}
		return &ast.ExprStmt{X: x}, nil
	}
}

func decodeOptionalExpr(raw json.RawMessage) (ast.Expr, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	return decodeExpr(raw)
}

func decodeEnvelope(raw json.RawMessage) (*jsonNode, error) {
	var n jsonNode
	if err := json.Unmarshal(raw, &n); err != nil {
		return nil, fmt.Errorf("maincmd: decoding node: %w", err)
	}
	return &n, nil
}

func decodeExpr(raw json.RawMessage) (ast.Expr, error) {
	n, err := decodeEnvelope(raw)
	if err != nil {
		return nil, err
	}

	switch n.Node {
	case "Literal":
		return decodeLiteral(n)

	case "Variable":
		return &ast.Variable{Name: n.Name}, nil

	case "Binary":
		op, err := opToken(n.Op)
		if err != nil {
			return nil, err
		}
		l, err := decodeExpr(n.Left)
		if err != nil {
			return nil, err
		}
		r, err := decodeExpr(n.Right)
		if err != nil {
			return nil, err
		}
		return &ast.Binary{Left: l, Right: r, Op: op}, nil

	case "Unary":
		op, err := opToken(n.Op)
		if err != nil {
			return nil, err
		}
		x, err := decodeExpr(n.Operand)
		if err != nil {
			return nil, err
		}
		return &ast.Unary{Operand: x, Op: op}, nil

	case "Index":
		c, err := decodeExpr(n.Container)
		if err != nil {
			return nil, err
		}
		idx, err := decodeExpr(n.Index)
		if err != nil {
			return nil, err
		}
		return &ast.Index{Container: c, Index: idx}, nil

	case "List":
		elems := make([]ast.Expr, 0, len(n.Elements))
		for _, raw := range n.Elements {
			e, err := decodeExpr(raw)
			if err != nil {
				return nil, err
			}
			elems = append(elems, e)
		}
		return &ast.List{Elements: elems}, nil

	case "Object":
		fields := make([]ast.ObjectField, 0, len(n.Fields))
		for _, f := range n.Fields {
			k, err := decodeExpr(f.Key)
			if err != nil {
				return nil, err
			}
			v, err := decodeExpr(f.Value)
			if err != nil {
				return nil, err
			}
			fields = append(fields, ast.ObjectField{Key: k, Value: v})
		}
		return &ast.Object{Fields: fields}, nil

	case "FnCall":
		callee, err := decodeExpr(n.Callee)
		if err != nil {
			return nil, err
		}
		args := make([]ast.Expr, 0, len(n.Args))
		for _, raw := range n.Args {
			a, err := decodeExpr(raw)
			if err != nil {
				return nil, err
			}
			args = append(args, a)
		}
		return &ast.FnCall{Callee: callee, Args: args}, nil

	case "FnDeclaration":
		return decodeFnDeclaration(n)

	case "Interface":
		methods := make([]*ast.FnDeclaration, 0, len(n.Methods))
		for _, raw := range n.Methods {
			mn, err := decodeEnvelope(raw)
			if err != nil {
				return nil, err
			}
			fn, err := decodeFnDeclaration(mn)
			if err != nil {
				return nil, err
			}
			methods = append(methods, fn)
		}
		return &ast.Interface{Name: n.Name, Fields: n.InstanceFields, Methods: methods}, nil

	case "Declaration":
		v, err := decodeExpr(n.Value)
		if err != nil {
			return nil, err
		}
		return &ast.Declaration{Name: n.Name, Value: v}, nil

	case "Assignment":
		op, err := opToken(n.Op)
		if err != nil {
			return nil, err
		}
		target, err := decodeExpr(n.Target)
		if err != nil {
			return nil, err
		}
		v, err := decodeExpr(n.Value)
		if err != nil {
			return nil, err
		}
		return &ast.Assignment{Target: target, Op: op, Value: v}, nil

	case "If":
		cond, err := decodeExpr(n.Cond)
		if err != nil {
			return nil, err
		}
		then, err := decodeBlock(n.Then)
		if err != nil {
			return nil, err
		}
		var elseBlock *ast.Block
		if len(n.Else) > 0 {
			elseBlock, err = decodeBlock(n.Else)
			if err != nil {
				return nil, err
			}
		}
		return &ast.If{Cond: cond, Then: then, Else: elseBlock}, nil

	case "Loop":
		var cond ast.Expr
		var err error
		if len(n.Cond) > 0 {
			cond, err = decodeExpr(n.Cond)
			if err != nil {
				return nil, err
			}
		}
		body, err := decodeBlock(n.Body)
		if err != nil {
			return nil, err
		}
		return &ast.Loop{Cond: cond, Body: body}, nil

	case "Block":
		return decodeBlockNode(n)

	default:
		return nil, fmt.Errorf("maincmd: unknown expression node %q", n.Node)
	}
}

func decodeFnDeclaration(n *jsonNode) (*ast.FnDeclaration, error) {
	body, err := decodeBlock(n.Body)
	if err != nil {
		return nil, err
	}
	return &ast.FnDeclaration{Name: n.Name, Params: n.Params, Body: body}, nil
}
