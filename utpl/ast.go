package utpl

type Node interface {
	Pos() Position
}

type Statement interface {
	Node
	stmtNode()
}

type Expression interface {
	Node
	exprNode()
}

// Program is the parsed form of one template: literal output, emit
// statements, and code statements in source order.
type Program struct {
	Statements []Statement
}

func (p *Program) Pos() Position {
	if len(p.Statements) == 0 {
		return Position{}
	}
	return p.Statements[0].Pos()
}

// TextStmt emits a literal template region byte for byte.
type TextStmt struct {
	Text     string
	position Position
}

func (s *TextStmt) stmtNode()     {}
func (s *TextStmt) Pos() Position { return s.position }

// EmitStmt emits the stringified result of a {{ ... }} expression block.
type EmitStmt struct {
	Expr     Expression
	position Position
}

func (s *EmitStmt) stmtNode()     {}
func (s *EmitStmt) Pos() Position { return s.position }

type ExprStmt struct {
	Expr     Expression
	position Position
}

func (s *ExprStmt) stmtNode()     {}
func (s *ExprStmt) Pos() Position { return s.position }

type BlockStmt struct {
	Statements []Statement
	position   Position
}

func (s *BlockStmt) stmtNode()     {}
func (s *BlockStmt) Pos() Position { return s.position }

// LocalDecl is one declarator of a local statement; Value may be nil.
type LocalDecl struct {
	Name  string
	Value Expression
}

type LocalStmt struct {
	Decls    []LocalDecl
	position Position
}

func (s *LocalStmt) stmtNode()     {}
func (s *LocalStmt) Pos() Position { return s.position }

type IfStmt struct {
	Condition  Expression
	Consequent Statement
	Alternate  Statement
	position   Position
}

func (s *IfStmt) stmtNode()     {}
func (s *IfStmt) Pos() Position { return s.position }

// ForStmt is the three-clause loop. Any clause may be nil; a nil condition
// is always true.
type ForStmt struct {
	Init     Statement
	Cond     Expression
	Step     Expression
	Body     Statement
	position Position
}

func (s *ForStmt) stmtNode()     {}
func (s *ForStmt) Pos() Position { return s.position }

// ForInStmt enumerates array items in index order or object keys in
// insertion order.
type ForInStmt struct {
	Local    bool
	Name     string
	Iterable Expression
	Body     Statement
	position Position
}

func (s *ForInStmt) stmtNode()     {}
func (s *ForInStmt) Pos() Position { return s.position }

// FunctionStmt declares a named function and binds it in the current frame.
// Every closure created from the declaration shares this node.
type FunctionStmt struct {
	Name     string
	Params   []string
	Body     Statement
	position Position
}

func (s *FunctionStmt) stmtNode()     {}
func (s *FunctionStmt) Pos() Position { return s.position }

type ReturnStmt struct {
	Value    Expression
	position Position
}

func (s *ReturnStmt) stmtNode()     {}
func (s *ReturnStmt) Pos() Position { return s.position }

type BreakStmt struct {
	position Position
}

func (s *BreakStmt) stmtNode()     {}
func (s *BreakStmt) Pos() Position { return s.position }

type ContinueStmt struct {
	position Position
}

func (s *ContinueStmt) stmtNode()     {}
func (s *ContinueStmt) Pos() Position { return s.position }

type Identifier struct {
	Name     string
	position Position
}

func (e *Identifier) exprNode()     {}
func (e *Identifier) Pos() Position { return e.position }

type IntLiteral struct {
	Value    int64
	position Position
}

func (e *IntLiteral) exprNode()     {}
func (e *IntLiteral) Pos() Position { return e.position }

type DoubleLiteral struct {
	Value    float64
	position Position
}

func (e *DoubleLiteral) exprNode()     {}
func (e *DoubleLiteral) Pos() Position { return e.position }

type StringLiteral struct {
	Value    string
	position Position
}

func (e *StringLiteral) exprNode()     {}
func (e *StringLiteral) Pos() Position { return e.position }

type BoolLiteral struct {
	Value    bool
	position Position
}

func (e *BoolLiteral) exprNode()     {}
func (e *BoolLiteral) Pos() Position { return e.position }

type NullLiteral struct {
	position Position
}

func (e *NullLiteral) exprNode()     {}
func (e *NullLiteral) Pos() Position { return e.position }

type ArrayLiteral struct {
	Elements []Expression
	position Position
}

func (e *ArrayLiteral) exprNode()     {}
func (e *ArrayLiteral) Pos() Position { return e.position }

// ObjectPair is one key/value entry of an object literal. Keys are constant
// strings: bare identifiers or quoted strings, JSON style.
type ObjectPair struct {
	Key   string
	Value Expression
}

type ObjectLiteral struct {
	Pairs    []ObjectPair
	position Position
}

func (e *ObjectLiteral) exprNode()     {}
func (e *ObjectLiteral) Pos() Position { return e.position }

// FunctionLiteral is a function in expression position; Name may be empty.
type FunctionLiteral struct {
	Name     string
	Params   []string
	Body     Statement
	position Position
}

func (e *FunctionLiteral) exprNode()     {}
func (e *FunctionLiteral) Pos() Position { return e.position }

type UnaryExpr struct {
	Operator TokenType
	Right    Expression
	position Position
}

func (e *UnaryExpr) exprNode()     {}
func (e *UnaryExpr) Pos() Position { return e.position }

type BinaryExpr struct {
	Left     Expression
	Operator TokenType
	Right    Expression
	position Position
}

func (e *BinaryExpr) exprNode()     {}
func (e *BinaryExpr) Pos() Position { return e.position }

type TernaryExpr struct {
	Condition Expression
	Then      Expression
	Else      Expression
	position  Position
}

func (e *TernaryExpr) exprNode()     {}
func (e *TernaryExpr) Pos() Position { return e.position }

// AssignExpr covers plain and compound assignment. For compound forms Op is
// the underlying binary operator (tokenPlus for +=, and so on); for plain
// assignment Op is tokenAssign.
type AssignExpr struct {
	Target   Expression
	Op       TokenType
	Value    Expression
	position Position
}

func (e *AssignExpr) exprNode()     {}
func (e *AssignExpr) Pos() Position { return e.position }

type CallExpr struct {
	Callee   Expression
	Args     []Expression
	position Position
}

func (e *CallExpr) exprNode()     {}
func (e *CallExpr) Pos() Position { return e.position }

type MemberExpr struct {
	Object   Expression
	Property string
	position Position
}

func (e *MemberExpr) exprNode()     {}
func (e *MemberExpr) Pos() Position { return e.position }

type IndexExpr struct {
	Object   Expression
	Index    Expression
	position Position
}

func (e *IndexExpr) exprNode()     {}
func (e *IndexExpr) Pos() Position { return e.position }
