package core

const (
	FilterDay   TimeFilter = "day"
	FilterWeek  TimeFilter = "week"
	FilterMonth TimeFilter = "month"
	FilterYear  TimeFilter = "year"
)

const (
	TrendUp     TrendDirection = "up"
	TrendDown   TrendDirection = "down"
	TrendStable TrendDirection = "stable"
)

const (
	ConfidenceLow    Confidence = "low"
	ConfidenceMedium Confidence = "medium"
	ConfidenceHigh   Confidence = "high"
)

type (
	// TimeFilter is the coarse dashboard window selector.
	TimeFilter string

	// TrendDirection classifies the signed percent change of a category's
	// spending against a 5% threshold.
	TrendDirection string

	// Confidence is the forecast reliability tier, driven solely by how
	// many days of the month have elapsed.
	Confidence string

	// DashboardSummary holds window totals. TotalBalance is always
	// TotalIncome - TotalExpense; it is derived, never stored.
	DashboardSummary struct {
		TotalIncome  Money `json:"totalIncome"`
		TotalExpense Money `json:"totalExpense"`
		TotalBalance Money `json:"totalBalance"`
	}

	// CategoryBreakdown is one expense category's share of a window.
	// Percentages across a non-empty breakdown sum to 100 within rounding.
	CategoryBreakdown struct {
		CategoryID    int64   `json:"categoryId"`
		CategoryName  string  `json:"categoryName"`
		CategoryIcon  string  `json:"categoryIcon,omitempty"`
		CategoryColor string  `json:"categoryColor,omitempty"`
		Total         Money   `json:"total"`
		Percentage    float64 `json:"percentage"`
		Count         int     `json:"count"`
	}

	// MonthlyTrend is one calendar month's totals. Months with no
	// transactions produce no row.
	MonthlyTrend struct {
		Month        string `json:"month"` // Jan..Dec
		Year         int    `json:"year"`
		TotalIncome  Money  `json:"totalIncome"`
		TotalExpense Money  `json:"totalExpense"`
		NetBalance   Money  `json:"netBalance"`
	}

	// CategoryAnalysis extends the breakdown with a trend classification
	// against the comparable previous window. TrendPercentage is the
	// absolute percent change; the direction carries the sign.
	CategoryAnalysis struct {
		CategoryID       int64          `json:"categoryId"`
		CategoryName     string         `json:"categoryName"`
		CategoryIcon     string         `json:"categoryIcon,omitempty"`
		CategoryColor    string         `json:"categoryColor,omitempty"`
		Total            Money          `json:"total"`
		Percentage       float64        `json:"percentage"`
		TransactionCount int            `json:"transactionCount"`
		Trend            TrendDirection `json:"trend"`
		TrendPercentage  float64        `json:"trendPercentage"`
	}

	// SpendingForecast is a linear extrapolation of the current month's
	// spending. It exists only once three days of the month have passed.
	SpendingForecast struct {
		CurrentMonthSpent   Money      `json:"currentMonthSpent"`
		DaysInMonth         int        `json:"daysInMonth"`
		DaysPassed          int        `json:"daysPassed"`
		DailyAverage        float64    `json:"dailyAverage"`
		ProjectedEndOfMonth float64    `json:"projectedEndOfMonth"`
		ProjectedBalance    float64    `json:"projectedBalance"`
		Confidence          Confidence `json:"confidence"`
		Warning             bool       `json:"warning"`
	}

	// PeriodComparison compares a window against its comparable previous
	// window at the whole-ledger level. Change fields are signed percent
	// deltas, zero when the previous value was zero.
	PeriodComparison struct {
		CurrentIncome   Money   `json:"currentIncome"`
		CurrentExpense  Money   `json:"currentExpense"`
		CurrentBalance  Money   `json:"currentBalance"`
		PreviousIncome  Money   `json:"previousIncome"`
		PreviousExpense Money   `json:"previousExpense"`
		PreviousBalance Money   `json:"previousBalance"`
		IncomeChange    float64 `json:"incomeChange"`
		ExpenseChange   float64 `json:"expenseChange"`
		BalanceChange   float64 `json:"balanceChange"`
	}
)

func (f TimeFilter) Validate() error {
	switch f {
	case FilterDay, FilterWeek, FilterMonth, FilterYear:
		return nil
	}
	return ErrInvalidFilter
}
