// Package scoring содержит чистую логику начисления очков за прогноз.
// Никаких обращений к базе или часам: только факты на входе, очки на выходе.
package scoring

import (
	"fmt"

	"github.com/yourusername/matchbet-api/internal/domain/entity"
)

// PointsTable задает количество очков за каждую градацию точности
type PointsTable struct {
	// Exact — очки за точное совпадение счета
	Exact int
	// Outcome — очки за угаданный исход при несовпавшем счете
	Outcome int
}

// DefaultPointsTable возвращает таблицу очков по умолчанию
func DefaultPointsTable() PointsTable {
	return PointsTable{
		Exact:   3,
		Outcome: 1,
	}
}

// PredictionFacts — минимальный слепок прогноза, необходимый для начисления
type PredictionFacts struct {
	Outcome   string
	HomeScore int
	AwayScore int
}

// ResultFacts — минимальный слепок финального результата
type ResultFacts struct {
	Winner    string
	HomeScore int
	AwayScore int
}

// Score начисляет очки за прогноз по финальному результату.
// Градации строго взаимоисключающие: либо точный счет, либо только исход,
// либо ноль. Нарушение внутренней согласованности входных данных — ошибка
// вызывающего кода, а не нулевой прогноз, поэтому возвращается error.
func Score(pred PredictionFacts, res ResultFacts, table PointsTable) (int, error) {
	if pred.HomeScore < 0 || pred.AwayScore < 0 {
		return 0, fmt.Errorf("scoring: отрицательный счет в прогнозе: %d:%d", pred.HomeScore, pred.AwayScore)
	}
	if res.HomeScore < 0 || res.AwayScore < 0 {
		return 0, fmt.Errorf("scoring: отрицательный счет в результате: %d:%d", res.HomeScore, res.AwayScore)
	}
	if !entity.ValidOutcome(pred.Outcome) {
		return 0, fmt.Errorf("scoring: недопустимый исход прогноза: %q", pred.Outcome)
	}
	if derived := entity.DeriveOutcome(pred.HomeScore, pred.AwayScore); pred.Outcome != derived {
		return 0, fmt.Errorf("scoring: исход прогноза %q противоречит счету %d:%d", pred.Outcome, pred.HomeScore, pred.AwayScore)
	}
	if derived := entity.DeriveOutcome(res.HomeScore, res.AwayScore); res.Winner != derived {
		return 0, fmt.Errorf("scoring: победитель %q противоречит счету результата %d:%d", res.Winner, res.HomeScore, res.AwayScore)
	}

	if pred.HomeScore == res.HomeScore && pred.AwayScore == res.AwayScore {
		return table.Exact, nil
	}

	if pred.Outcome == res.Winner {
		return table.Outcome, nil
	}

	return 0, nil
}
