package parser

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/InfiniteLoop-luna/etf/pkg/etfgrid/grid"
	"github.com/InfiniteLoop-luna/etf/pkg/etfgrid/models"
	"github.com/xuri/efp"
)

// maxFormulaDepth bounds the chain of formula cells followed from one entry.
const maxFormulaDepth = 64

var (
	errCycle       = errors.New("circular reference")
	errTooDeep     = errors.New("formula nesting too deep")
	errDivByZero   = errors.New("division by zero")
	errUnsupported = errors.New("unsupported formula syntax")
)

// Evaluate resolves a formula found at (row, col) to a number.
//
// Only SUM over ranges, cell references and numbers, and the arithmetic
// operators + - * / with parentheses are understood. Empty and non-numeric
// referenced cells count as zero. Referenced formula cells are evaluated
// recursively; a reference cycle is unresolvable. Inside a SUM range a
// referenced formula that cannot be resolved counts as zero, unless it is
// part of a cycle. Any failure is returned as a *models.UnresolvableCellError.
func Evaluate(g grid.Grid, formula string, row, col int) (float64, error) {
	e := &evaluator{
		grid:     g,
		visiting: make(map[cellPos]bool),
		resolved: make(map[cellPos]resolution),
	}
	e.visiting[cellPos{row, col}] = true
	n, err := e.eval(formula)
	if err != nil {
		return 0, &models.UnresolvableCellError{Row: row, Col: col, Formula: formula, Err: err}
	}
	return n, nil
}

type cellPos struct{ row, col int }

type evaluator struct {
	grid     grid.Grid
	visiting map[cellPos]bool
	// resolved memoizes referenced formula cells whose outcome does not
	// depend on the reference path.
	resolved map[cellPos]resolution

	maxRow, maxCol int
	boundsKnown    bool
}

type resolution struct {
	n   float64
	err error
}

// pathDependent reports whether err comes from the chain of cells being
// followed rather than from the cell itself.
func pathDependent(err error) bool {
	return errors.Is(err, errCycle) || errors.Is(err, errTooDeep)
}

func (e *evaluator) eval(formula string) (float64, error) {
	formula = strings.TrimPrefix(strings.TrimSpace(formula), "=")
	if formula == "" {
		return 0, fmt.Errorf("%w: empty formula", errUnsupported)
	}

	ps := efp.ExcelParser()
	var tokens []efp.Token
	for _, tok := range ps.Parse("=" + formula) {
		if tok.TType != efp.TokenTypeWhitespace {
			tokens = append(tokens, tok)
		}
	}

	p := &exprParser{eval: e, tokens: tokens}
	n, err := p.expr()
	if err != nil {
		return 0, err
	}
	if p.pos != len(p.tokens) {
		return 0, fmt.Errorf("%w: unexpected %q", errUnsupported, p.tokens[p.pos].TValue)
	}
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, fmt.Errorf("formula result is not finite")
	}
	return n, nil
}

// cellNumber returns the numeric value of a referenced cell.
func (e *evaluator) cellNumber(row, col int) (float64, error) {
	if r, ok := e.resolved[cellPos{row, col}]; ok {
		return r.n, r.err
	}
	v := e.grid.Cell(row, col)
	switch v.Kind() {
	case models.KindEmpty, models.KindDate:
		return 0, nil
	case models.KindNumber:
		n, _ := v.Number()
		return n, nil
	case models.KindText:
		s, _ := v.Text()
		if n, ok := parseNumber(s); ok {
			return n, nil
		}
		return 0, nil
	case models.KindFormula:
		pos := cellPos{row, col}
		if e.visiting[pos] {
			return 0, fmt.Errorf("%w at %s", errCycle, grid.CellName(row, col))
		}
		if len(e.visiting) >= maxFormulaDepth {
			return 0, errTooDeep
		}
		expr, _ := v.Formula()
		e.visiting[pos] = true
		n, evalErr := e.eval(expr)
		delete(e.visiting, pos)
		err := evalErr
		if err != nil {
			if cached, ok := v.Cached(); ok && !errors.Is(err, errCycle) {
				n, err = cached, nil
			} else {
				n, err = 0, fmt.Errorf("%s: %w", grid.CellName(row, col), err)
			}
		}
		if evalErr == nil || !pathDependent(evalErr) {
			e.resolved[pos] = resolution{n: n, err: err}
		}
		return n, err
	}
	return 0, fmt.Errorf("%w: cell kind %s", errUnsupported, v.Kind())
}

// sumRange adds up a rectangle, clamped to the populated part of the grid.
// Formula cells that cannot be resolved add nothing; cycles and runaway
// nesting still fail the sum.
func (e *evaluator) sumRange(r models.Range) (float64, error) {
	if !e.boundsKnown {
		e.maxRow, e.maxCol = e.grid.MaxRow(), e.grid.MaxCol()
		e.boundsKnown = true
	}
	total := 0.0
	for row := r.R1; row <= r.R2 && row <= e.maxRow; row++ {
		for col := r.C1; col <= r.C2 && col <= e.maxCol; col++ {
			n, err := e.cellNumber(row, col)
			if err != nil {
				if pathDependent(err) {
					return 0, err
				}
				continue
			}
			total += n
		}
	}
	return total, nil
}

// exprParser is a precedence-climbing parser over efp tokens. It accepts
// numbers, operators and parentheses only; SUM calls and cell references are
// replaced by their values as they are reached.
type exprParser struct {
	eval   *evaluator
	tokens []efp.Token
	pos    int
}

func (p *exprParser) peek() (efp.Token, bool) {
	if p.pos >= len(p.tokens) {
		return efp.Token{}, false
	}
	return p.tokens[p.pos], true
}

func (p *exprParser) isInfix(ops string) (string, bool) {
	tok, ok := p.peek()
	if !ok || tok.TType != efp.TokenTypeOperatorInfix {
		return "", false
	}
	if len(tok.TValue) == 1 && strings.Contains(ops, tok.TValue) {
		return tok.TValue, true
	}
	return "", false
}

func (p *exprParser) expr() (float64, error) {
	left, err := p.term()
	if err != nil {
		return 0, err
	}
	for {
		op, ok := p.isInfix("+-")
		if !ok {
			return left, nil
		}
		p.pos++
		right, err := p.term()
		if err != nil {
			return 0, err
		}
		if op == "+" {
			left += right
		} else {
			left -= right
		}
	}
}

func (p *exprParser) term() (float64, error) {
	left, err := p.unary()
	if err != nil {
		return 0, err
	}
	for {
		op, ok := p.isInfix("*/")
		if !ok {
			return left, nil
		}
		p.pos++
		right, err := p.unary()
		if err != nil {
			return 0, err
		}
		if op == "*" {
			left *= right
			continue
		}
		if right == 0 {
			return 0, errDivByZero
		}
		left /= right
	}
}

func (p *exprParser) unary() (float64, error) {
	tok, ok := p.peek()
	if ok && tok.TType == efp.TokenTypeOperatorPrefix {
		p.pos++
		n, err := p.unary()
		if err != nil {
			return 0, err
		}
		switch tok.TValue {
		case "-":
			return -n, nil
		case "+":
			return n, nil
		}
		return 0, fmt.Errorf("%w: prefix operator %q", errUnsupported, tok.TValue)
	}
	return p.primary()
}

func (p *exprParser) primary() (float64, error) {
	tok, ok := p.peek()
	if !ok {
		return 0, fmt.Errorf("%w: unexpected end of formula", errUnsupported)
	}
	p.pos++

	switch {
	case tok.TType == efp.TokenTypeOperand && tok.TSubType == efp.TokenSubTypeNumber:
		n, err := strconv.ParseFloat(tok.TValue, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: number %q", errUnsupported, tok.TValue)
		}
		return n, nil

	case tok.TType == efp.TokenTypeOperand && tok.TSubType == efp.TokenSubTypeRange:
		if strings.Contains(tok.TValue, ":") {
			return 0, fmt.Errorf("%w: range %q outside SUM", errUnsupported, tok.TValue)
		}
		row, col, err := parseCellRef(tok.TValue)
		if err != nil {
			return 0, err
		}
		return p.eval.cellNumber(row, col)

	case tok.TType == efp.TokenTypeSubexpression && tok.TSubType == efp.TokenSubTypeStart:
		n, err := p.expr()
		if err != nil {
			return 0, err
		}
		if !p.consume(efp.TokenTypeSubexpression, efp.TokenSubTypeStop) {
			return 0, fmt.Errorf("%w: unbalanced parenthesis", errUnsupported)
		}
		return n, nil

	case tok.TType == efp.TokenTypeFunction && tok.TSubType == efp.TokenSubTypeStart:
		if !strings.EqualFold(tok.TValue, "SUM") {
			return 0, fmt.Errorf("%w: function %s", errUnsupported, tok.TValue)
		}
		return p.sum()
	}
	return 0, fmt.Errorf("%w: %s %q", errUnsupported, tok.TType, tok.TValue)
}

// sum evaluates the arguments of SUM up to its closing token. Each argument
// is a range or an arithmetic expression.
func (p *exprParser) sum() (float64, error) {
	total := 0.0
	if p.consume(efp.TokenTypeFunction, efp.TokenSubTypeStop) {
		return 0, nil
	}
	for {
		tok, ok := p.peek()
		if !ok {
			return 0, fmt.Errorf("%w: unterminated SUM", errUnsupported)
		}
		if tok.TType == efp.TokenTypeOperand && tok.TSubType == efp.TokenSubTypeRange && strings.Contains(tok.TValue, ":") {
			r, err := parseRangeRef(tok.TValue)
			if err != nil {
				return 0, err
			}
			p.pos++
			n, err := p.eval.sumRange(r)
			if err != nil {
				return 0, err
			}
			total += n
		} else {
			n, err := p.expr()
			if err != nil {
				return 0, err
			}
			total += n
		}

		if p.consume(efp.TokenTypeFunction, efp.TokenSubTypeStop) {
			return total, nil
		}
		if !p.consume(efp.TokenTypeArgument, "") {
			return 0, fmt.Errorf("%w: malformed SUM arguments", errUnsupported)
		}
	}
}

func (p *exprParser) consume(typ, subType string) bool {
	tok, ok := p.peek()
	if !ok || tok.TType != typ || (subType != "" && tok.TSubType != subType) {
		return false
	}
	p.pos++
	return true
}
