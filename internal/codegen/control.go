package codegen

import (
	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/value"

	"github.com/reticulated/retic/internal/ast"
)

// compileCondition lowers a condition expression, checks it is bool,
// extracts the i1 and frees the condition's record.
func (g *Generator) compileCondition(expr ast.Expression) (value.Value, error) {
	ptr, typ, err := g.compileExpression(expr)
	if err != nil {
		return nil, err
	}
	if typ != BoolID {
		return nil, newError(ErrInvalidType,
			"condition must be bool, got %q", g.env.TypeIdent(typ))
	}
	val := g.extractPrimitive(ptr, g.env.GetType(BoolID))
	if err := g.freePointer(ptr, BoolID); err != nil {
		return nil, err
	}
	return val, nil
}

// compileLogical emits short-circuiting and/or: a right-condition block and
// a continue block joined by a phi that merges the left pointer (on the
// short-circuit path) with the right pointer. The left value is freed on
// the path into the right operand.
func (g *Generator) compileLogical(expr *ast.LogicalExpression) (value.Value, TypeID, error) {
	left, leftTyp, err := g.compileExpression(expr.Left)
	if err != nil {
		return nil, 0, err
	}
	if leftTyp != BoolID {
		return nil, 0, newError(ErrInvalidType,
			"operands of %q must be bool, got %q", expr.Op, g.env.TypeIdent(leftTyp))
	}

	leftVal := g.extractPrimitive(left, g.env.GetType(BoolID))
	leftEnd := g.cur

	rightBlock := g.newBlock("rhs")
	contBlock := g.newBlock("continue")

	if expr.Op == ast.LogicalAnd {
		leftEnd.NewCondBr(leftVal, rightBlock, contBlock)
	} else {
		leftEnd.NewCondBr(leftVal, contBlock, rightBlock)
	}

	g.cur = rightBlock
	if err := g.freePointer(left, BoolID); err != nil {
		return nil, 0, err
	}
	right, rightTyp, err := g.compileExpression(expr.Right)
	if err != nil {
		return nil, 0, err
	}
	if rightTyp != BoolID {
		return nil, 0, newError(ErrInvalidType,
			"operands of %q must be bool, got %q", expr.Op, g.env.TypeIdent(rightTyp))
	}
	rightEnd := g.cur
	rightEnd.NewBr(contBlock)

	g.cur = contBlock
	result := contBlock.NewPhi(ir.NewIncoming(left, leftEnd), ir.NewIncoming(right, rightEnd))
	return result, BoolID, nil
}

// compileIf emits a chain of condition blocks terminating in a common merge
// block. Each then/else branch compiles its block in a fresh scope and
// falls through to merge unless it already terminated.
func (g *Generator) compileIf(stmt *ast.IfStatement) error {
	condVal, err := g.compileCondition(stmt.Condition)
	if err != nil {
		return err
	}

	srcBlock := g.cur
	thenBlock := g.newBlock("then")
	mergeBlock := g.newBlock("merge")

	g.cur = thenBlock
	if err := g.compileBlock(stmt.Then); err != nil {
		return err
	}
	if g.cur.Term == nil {
		g.cur.NewBr(mergeBlock)
	}

	for _, branch := range stmt.ElseIfs {
		condBlock := g.newBlock("elseifcondition")
		nextThen := g.newBlock("elseif")

		srcBlock.NewCondBr(condVal, thenBlock, condBlock)

		g.cur = condBlock
		condVal, err = g.compileCondition(branch.Condition)
		if err != nil {
			return err
		}
		srcBlock = g.cur
		thenBlock = nextThen

		g.cur = nextThen
		if err := g.compileBlock(branch.Body); err != nil {
			return err
		}
		if g.cur.Term == nil {
			g.cur.NewBr(mergeBlock)
		}
	}

	if stmt.Else != nil {
		elseBlock := g.newBlock("else")
		srcBlock.NewCondBr(condVal, thenBlock, elseBlock)

		g.cur = elseBlock
		if err := g.compileBlock(stmt.Else); err != nil {
			return err
		}
		if g.cur.Term == nil {
			g.cur.NewBr(mergeBlock)
		}
	} else {
		srcBlock.NewCondBr(condVal, thenBlock, mergeBlock)
	}

	g.cur = mergeBlock
	return nil
}

// compileWhile emits (condition, body, continue) blocks. The condition is
// re-evaluated on every iteration and its record freed once the i1 is
// extracted; the body ends with a back-edge to the condition block.
func (g *Generator) compileWhile(stmt *ast.WhileStatement) error {
	condBlock := g.newBlock("condition")
	bodyBlock := g.newBlock("body")
	mergeBlock := g.newBlock("continue")

	g.cur.NewBr(condBlock)

	g.cur = condBlock
	condVal, err := g.compileCondition(stmt.Condition)
	if err != nil {
		return err
	}
	g.cur.NewCondBr(condVal, bodyBlock, mergeBlock)

	g.cur = bodyBlock
	if err := g.compileBlock(stmt.Body); err != nil {
		return err
	}
	if g.cur.Term == nil {
		g.cur.NewBr(condBlock)
	}

	g.cur = mergeBlock
	return nil
}
