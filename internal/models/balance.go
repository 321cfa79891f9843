package models

// ComputeAccountBalance derives the current balance of an account from the
// trade ledger:
//
//	balance = startingBalance + Σ(pnl + commission)
//
// over trades that belong to the account and are not excluded from
// aggregation. Commission is already stored non-positive, so it is added,
// never subtracted; PnL excludes commission so nothing is counted twice.
// With zero qualifying trades the result is exactly the starting balance.
// The result is recomputed from the full ledger on every call rather than
// cached, since trades mutate frequently.
func ComputeAccountBalance(account TradingAccount, trades []Trade) float64 {
	balance := account.StartingBalance
	for i := range trades {
		t := &trades[i]
		if !t.CountsToward(account.ID) || !t.Included() {
			continue
		}
		balance += t.PnL + t.Commission
	}
	return balance
}

// AccountStats aggregates the same trade subset the balance uses.
type AccountStats struct {
	Trades          int     `json:"trades"`
	Wins            int     `json:"wins"`
	Losses          int     `json:"losses"`
	Breakeven       int     `json:"breakeven"`
	Open            int     `json:"open"`
	WinRate         float64 `json:"winRate"`
	TotalPnL        float64 `json:"totalPnl"`
	TotalCommission float64 `json:"totalCommission"`
}

// ComputeAccountStats summarizes the qualifying trades for an account.
// Win rate is wins over decided trades (open and breakeven excluded).
func ComputeAccountStats(account TradingAccount, trades []Trade) AccountStats {
	var s AccountStats
	for i := range trades {
		t := &trades[i]
		if !t.CountsToward(account.ID) || !t.Included() {
			continue
		}
		s.Trades++
		s.TotalPnL += t.PnL
		s.TotalCommission += t.Commission
		switch t.Status {
		case StatusWin:
			s.Wins++
		case StatusLoss:
			s.Losses++
		case StatusBreakeven:
			s.Breakeven++
		case StatusOpen:
			s.Open++
		}
	}
	if decided := s.Wins + s.Losses; decided > 0 {
		s.WinRate = float64(s.Wins) / float64(decided) * 100
	}
	return s
}
