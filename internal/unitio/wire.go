package unitio

// SchemaVersion is the wire version written by Encode. Units with a newer
// version are rejected.
const SchemaVersion = 1

// Unit is the top-level wire document.
type Unit struct {
	Version int      `json:"version" msgpack:"version"`
	Files   []string `json:"files,omitempty" msgpack:"files,omitempty"`
	Types   []Type   `json:"types" msgpack:"types"`
}

// Span refers to Files by 1-based index; 0 marks synthesized syntax.
type Span struct {
	File  int64 `json:"file" msgpack:"file"`
	Start int64 `json:"start" msgpack:"start"`
	End   int64 `json:"end" msgpack:"end"`
}

type Type struct {
	Kind       string     `json:"kind" msgpack:"kind"`
	Name       string     `json:"name" msgpack:"name"`
	Namespace  string     `json:"namespace,omitempty" msgpack:"namespace,omitempty"`
	Base       string     `json:"base,omitempty" msgpack:"base,omitempty"`
	Interfaces []string   `json:"interfaces,omitempty" msgpack:"interfaces,omitempty"`
	Modifiers  string     `json:"modifiers,omitempty" msgpack:"modifiers,omitempty"`
	Members    []Member   `json:"members" msgpack:"members"`
	Overrides  []Override `json:"overrides,omitempty" msgpack:"overrides,omitempty"`
	Span       *Span      `json:"span,omitempty" msgpack:"span,omitempty"`
}

// Key names a member of the enclosing type. Sig is the parenthesized or
// bracketed parameter type list for methods, operators, finalizers and
// indexers, e.g. "(int,ref string)".
type Key struct {
	Name      string `json:"name" msgpack:"name"`
	Interface string `json:"interface,omitempty" msgpack:"interface,omitempty"`
	Sig       string `json:"sig,omitempty" msgpack:"sig,omitempty"`
}

// Override lists the layers of one target, innermost first.
type Override struct {
	Target Key     `json:"target" msgpack:"target"`
	Layers []Layer `json:"layers" msgpack:"layers"`
}

type Layer struct {
	Member        Key    `json:"member" msgpack:"member"`
	Aspect        string `json:"aspect,omitempty" msgpack:"aspect,omitempty"`
	NotInlineable bool   `json:"not_inlineable,omitempty" msgpack:"not_inlineable,omitempty"`
}

type Member struct {
	Kind         string     `json:"kind" msgpack:"kind"`
	Name         string     `json:"name" msgpack:"name"`
	Operator     string     `json:"operator,omitempty" msgpack:"operator,omitempty"`
	Interface    string     `json:"interface,omitempty" msgpack:"interface,omitempty"`
	Type         string     `json:"type,omitempty" msgpack:"type,omitempty"`
	Params       []Param    `json:"params,omitempty" msgpack:"params,omitempty"`
	Modifiers    string     `json:"modifiers,omitempty" msgpack:"modifiers,omitempty"`
	Attributes   []string   `json:"attributes,omitempty" msgpack:"attributes,omitempty"`
	Body         *Block     `json:"body,omitempty" msgpack:"body,omitempty"`
	ExprBodied   bool       `json:"expr_bodied,omitempty" msgpack:"expr_bodied,omitempty"`
	Accessors    []Accessor `json:"accessors,omitempty" msgpack:"accessors,omitempty"`
	Initializer  *Expr      `json:"initializer,omitempty" msgpack:"initializer,omitempty"`
	Suppressions []string   `json:"suppressions,omitempty" msgpack:"suppressions,omitempty"`
	BackingField bool       `json:"backing_field,omitempty" msgpack:"backing_field,omitempty"`
	Span         *Span      `json:"span,omitempty" msgpack:"span,omitempty"`
}

type Param struct {
	Name string `json:"name" msgpack:"name"`
	Type string `json:"type,omitempty" msgpack:"type,omitempty"`
	Ref  string `json:"ref,omitempty" msgpack:"ref,omitempty"`
}

// Accessor has a nil Body when it is automatic or abstract.
type Accessor struct {
	Kind       string `json:"kind" msgpack:"kind"`
	Modifiers  string `json:"modifiers,omitempty" msgpack:"modifiers,omitempty"`
	Body       *Block `json:"body,omitempty" msgpack:"body,omitempty"`
	ExprBodied bool   `json:"expr_bodied,omitempty" msgpack:"expr_bodied,omitempty"`
	Span       *Span  `json:"span,omitempty" msgpack:"span,omitempty"`
}

type Block struct {
	Stmts []*Stmt `json:"stmts" msgpack:"stmts"`
	Span  *Span   `json:"span,omitempty" msgpack:"span,omitempty"`
}

// Stmt is a tagged union over statement kinds; Kind selects which fields
// are meaningful:
//
//	block               Body
//	expr                Expr
//	local               Type, Name, Expr (initializer, optional)
//	return, throw       Expr (optional)
//	if                  Cond, Then, Else
//	while               Cond, Body
//	for                 Init, Cond, Post, Body
//	foreach             Type, Name, Expr (iterable), Body
//	try                 Body, Catches, Finally
//	goto, label         Label
//	yield               Expr, or Break
type Stmt struct {
	Kind    string  `json:"kind" msgpack:"kind"`
	Expr    *Expr   `json:"expr,omitempty" msgpack:"expr,omitempty"`
	Type    string  `json:"type,omitempty" msgpack:"type,omitempty"`
	Name    string  `json:"name,omitempty" msgpack:"name,omitempty"`
	Label   string  `json:"label,omitempty" msgpack:"label,omitempty"`
	Cond    *Expr   `json:"cond,omitempty" msgpack:"cond,omitempty"`
	Then    *Block  `json:"then,omitempty" msgpack:"then,omitempty"`
	Else    *Block  `json:"else,omitempty" msgpack:"else,omitempty"`
	Body    *Block  `json:"body,omitempty" msgpack:"body,omitempty"`
	Init    *Stmt   `json:"init,omitempty" msgpack:"init,omitempty"`
	Post    *Expr   `json:"post,omitempty" msgpack:"post,omitempty"`
	Catches []Catch `json:"catches,omitempty" msgpack:"catches,omitempty"`
	Finally *Block  `json:"finally,omitempty" msgpack:"finally,omitempty"`
	Break   bool    `json:"break,omitempty" msgpack:"break,omitempty"`
	Span    *Span   `json:"span,omitempty" msgpack:"span,omitempty"`
}

type Catch struct {
	Type string `json:"type,omitempty" msgpack:"type,omitempty"`
	Name string `json:"name,omitempty" msgpack:"name,omitempty"`
	Body *Block `json:"body" msgpack:"body"`
}

// Expr is a tagged union over expression kinds:
//
//	ident               Name
//	this, base          -
//	literal             Lit, Text
//	member              Recv, Name
//	call                Recv (callee), Args
//	index               Recv, Args
//	unary               Op, Left (operand), Postfix
//	binary, assign      Op, Left, Right
//	cast                Type, Left
//	lambda              Params, Body or Left (expression body)
//	new                 Type, Args
//	link                Link, Args
type Expr struct {
	Kind    string  `json:"kind" msgpack:"kind"`
	Name    string  `json:"name,omitempty" msgpack:"name,omitempty"`
	Lit     string  `json:"lit,omitempty" msgpack:"lit,omitempty"`
	Text    string  `json:"text,omitempty" msgpack:"text,omitempty"`
	Op      string  `json:"op,omitempty" msgpack:"op,omitempty"`
	Postfix bool    `json:"postfix,omitempty" msgpack:"postfix,omitempty"`
	Type    string  `json:"type,omitempty" msgpack:"type,omitempty"`
	Recv    *Expr   `json:"recv,omitempty" msgpack:"recv,omitempty"`
	Left    *Expr   `json:"left,omitempty" msgpack:"left,omitempty"`
	Right   *Expr   `json:"right,omitempty" msgpack:"right,omitempty"`
	Args    []Arg   `json:"args,omitempty" msgpack:"args,omitempty"`
	Params  []Param `json:"params,omitempty" msgpack:"params,omitempty"`
	Body    *Block  `json:"body,omitempty" msgpack:"body,omitempty"`
	Link    *Link   `json:"link,omitempty" msgpack:"link,omitempty"`
	Span    *Span   `json:"span,omitempty" msgpack:"span,omitempty"`
}

type Arg struct {
	Ref   string `json:"ref,omitempty" msgpack:"ref,omitempty"`
	Value *Expr  `json:"value" msgpack:"value"`
}

// Link is a link marker payload. Layer is set only for markers that name
// their target layer explicitly.
type Link struct {
	Member     string   `json:"member,omitempty" msgpack:"member,omitempty"`
	Interface  string   `json:"interface,omitempty" msgpack:"interface,omitempty"`
	Qualifier  string   `json:"qualifier,omitempty" msgpack:"qualifier,omitempty"`
	Accessor   string   `json:"accessor,omitempty" msgpack:"accessor,omitempty"`
	Layer      *int     `json:"layer,omitempty" msgpack:"layer,omitempty"`
	Hint       string   `json:"hint,omitempty" msgpack:"hint,omitempty"`
	Invoke     bool     `json:"invoke,omitempty" msgpack:"invoke,omitempty"`
	ParamTypes []string `json:"param_types,omitempty" msgpack:"param_types,omitempty"`
}
