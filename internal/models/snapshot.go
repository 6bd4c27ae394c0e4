package models

import "time"

// OutcomeSnapshot - срез одного исхода рынка
type OutcomeSnapshot struct {
	OutcomeID    string    `json:"outcome_id"`
	Name         string    `json:"name"`
	CurrentPrice float64   `json:"current_price"` // implied probability [0,1]
	BestBid      float64   `json:"best_bid"`
	BestAsk      float64   `json:"best_ask"`
	BidDepth     float64   `json:"bid_depth"` // суммарный объём bid-стороны стакана
	AskDepth     float64   `json:"ask_depth"`
	PriceHistory []float64 `json:"price_history,omitempty"` // последние N цен, старые первыми
}

// MarketSnapshot - срез рынка от MarketDataSource
type MarketSnapshot struct {
	MarketID  string            `json:"market_id"`
	Question  string            `json:"question"`
	Outcomes  []OutcomeSnapshot `json:"outcomes"`
	CloseTime time.Time         `json:"close_time"`
	FetchedAt time.Time         `json:"fetched_at"`
}

// Age возвращает возраст данных снапшота
func (m MarketSnapshot) Age(now time.Time) time.Duration {
	return now.Sub(m.FetchedAt)
}

// OddsLine - линия букмекера по одному исходу
type OddsLine struct {
	Outcome     string  `json:"outcome"`
	ImpliedProb float64 `json:"implied_prob"` // с маржой букмекера (vig)
	Bookmaker   string  `json:"bookmaker"`
}

// OddsSnapshot - срез линий букмекеров для рынка
type OddsSnapshot struct {
	MarketID         string     `json:"market_id"`
	Lines            []OddsLine `json:"lines"`
	TimeToEventHours float64    `json:"time_to_event_hours"`
	FetchedAt        time.Time  `json:"fetched_at"`
}

// Age возвращает возраст данных снапшота
func (o OddsSnapshot) Age(now time.Time) time.Duration {
	return now.Sub(o.FetchedAt)
}

// MarketData - входные данные одного цикла оценки стратегий.
// Снимается один раз в начале цикла, стратегии читают её параллельно
// без побочных эффектов.
type MarketData struct {
	Markets []MarketSnapshot
	Odds    map[string]OddsSnapshot // по market_id
	Now     time.Time
}

// OldestAge возвращает возраст самого старого снапшота рынка.
// По нему риск-движок принимает решение stale_data.
func (d MarketData) OldestAge() time.Duration {
	var oldest time.Duration
	for _, m := range d.Markets {
		if age := m.Age(d.Now); age > oldest {
			oldest = age
		}
	}
	return oldest
}
