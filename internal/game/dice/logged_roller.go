package dice

import "go.uber.org/zap"

// Roller wraps a Source and logs every roll at debug level. It satisfies
// Source itself so it can be handed to the combat resolvers directly; Die and
// Roll hand whole rolls to it so each die and expression is logged once.
type Roller struct {
	src    Source
	logger *zap.Logger
}

// NewLoggedRoller creates a Roller that draws from src and logs to logger.
//
// Precondition: src and logger must be non-nil.
func NewLoggedRoller(src Source, logger *zap.Logger) *Roller {
	return &Roller{src: src, logger: logger}
}

// Intn draws from the wrapped source and logs the raw draw.
func (r *Roller) Intn(n int) int {
	v := r.src.Intn(n)
	r.logger.Debug("dice draw", zap.Int("n", n), zap.Int("value", v))
	return v
}

// D rolls a single faces-sided die.
//
// Postcondition: Returns a value in [1, faces].
func (r *Roller) D(faces int) int {
	v := Die(r.src, faces)
	r.logger.Debug("die roll", zap.Int("faces", faces), zap.Int("result", v))
	return v
}

// Roll evaluates expr and logs the result with its dice and modifier.
func (r *Roller) Roll(expr Expression) RollResult {
	result := Roll(expr, r.src)
	r.logger.Debug("dice roll",
		zap.String("expression", result.Expression),
		zap.Ints("dice", result.Dice),
		zap.Int("modifier", result.Modifier),
		zap.Int("total", result.Total()),
	)
	return result
}
