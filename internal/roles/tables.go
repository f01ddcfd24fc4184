package roles

// Model holds the probability tables of the role HMM. Every Trans row plus
// the matching End entry sums to 1, as do Init and every Emit row.
type Model struct {
	// Init[s] is the probability that a book starts in s.
	Init [NumRoles]float64
	// Trans[r][s] is the probability of moving from r to s.
	Trans [NumRoles][NumRoles]float64
	// End[s] is the probability that the book ends after s.
	End [NumRoles]float64
	// Emit[s][i] is the probability that feature i fires for a title of role s.
	Emit [NumRoles][NumRoles]float64
}

// DefaultModel is calibrated on light-novel tables of contents. Regenerate the
// transition tables with cmd/trainroles.
var DefaultModel = Model{
	Init: [NumRoles]float64{0.250, 0.080, 0.050, 0.200, 0.120, 0.020, 0.220, 0.005, 0.005, 0.020, 0.020, 0.005, 0.005},
	Trans: [NumRoles][NumRoles]float64{
		Cover:        {0.005, 0.120, 0.060, 0.200, 0.150, 0.040, 0.378, 0.005, 0.005, 0.010, 0.010, 0.005, 0.002},
		BeforeExtra:  {0.001, 0.257, 0.080, 0.250, 0.150, 0.030, 0.200, 0.001, 0.001, 0.005, 0.005, 0.005, 0.005},
		Foreword:     {0.001, 0.050, 0.200, 0.250, 0.150, 0.030, 0.295, 0.001, 0.001, 0.001, 0.005, 0.001, 0.005},
		Contents:     {0.001, 0.080, 0.080, 0.020, 0.250, 0.060, 0.459, 0.005, 0.005, 0.010, 0.010, 0.005, 0.005},
		Prologue:     {0.001, 0.001, 0.001, 0.001, 0.060, 0.080, 0.785, 0.020, 0.020, 0.005, 0.010, 0.001, 0.005},
		PartTitle:    {0.001, 0.001, 0.001, 0.001, 0.001, 0.020, 0.927, 0.020, 0.010, 0.001, 0.001, 0.001, 0.005},
		Main:         {0.001, 0.001, 0.001, 0.001, 0.001, 0.030, 0.705, 0.040, 0.050, 0.040, 0.050, 0.020, 0.030},
		Interlude:    {0.001, 0.001, 0.001, 0.001, 0.001, 0.080, 0.654, 0.100, 0.060, 0.020, 0.030, 0.001, 0.010},
		Epilogue:     {0.001, 0.001, 0.001, 0.001, 0.001, 0.001, 0.001, 0.001, 0.100, 0.200, 0.352, 0.060, 0.150},
		BonusChapter: {0.001, 0.001, 0.001, 0.001, 0.001, 0.001, 0.001, 0.001, 0.001, 0.401, 0.300, 0.050, 0.100},
		Afterword:    {0.001, 0.001, 0.001, 0.001, 0.001, 0.001, 0.001, 0.001, 0.001, 0.020, 0.080, 0.150, 0.411},
		AfterExtra:   {0.001, 0.001, 0.001, 0.001, 0.001, 0.001, 0.001, 0.001, 0.001, 0.010, 0.250, 0.150, 0.301},
		Copyright:    {0.001, 0.001, 0.001, 0.001, 0.001, 0.001, 0.001, 0.001, 0.001, 0.001, 0.040, 0.040, 0.060},
	},
	End: [NumRoles]float64{0.010, 0.010, 0.010, 0.010, 0.010, 0.010, 0.030, 0.040, 0.130, 0.140, 0.330, 0.280, 0.850},
	Emit: [NumRoles][NumRoles]float64{
		Cover:        {0.968, 0.002, 0.002, 0.002, 0.002, 0.002, 0.010, 0.002, 0.002, 0.002, 0.002, 0.002, 0.002},
		BeforeExtra:  {0.002, 0.958, 0.002, 0.002, 0.002, 0.002, 0.020, 0.002, 0.002, 0.002, 0.002, 0.002, 0.002},
		Foreword:     {0.002, 0.002, 0.958, 0.002, 0.002, 0.002, 0.020, 0.002, 0.002, 0.002, 0.002, 0.002, 0.002},
		Contents:     {0.002, 0.002, 0.002, 0.968, 0.002, 0.002, 0.010, 0.002, 0.002, 0.002, 0.002, 0.002, 0.002},
		Prologue:     {0.002, 0.002, 0.002, 0.002, 0.828, 0.002, 0.150, 0.002, 0.002, 0.002, 0.002, 0.002, 0.002},
		PartTitle:    {0.002, 0.002, 0.002, 0.002, 0.002, 0.678, 0.300, 0.002, 0.002, 0.002, 0.002, 0.002, 0.002},
		Main:         {0.002, 0.002, 0.002, 0.002, 0.010, 0.005, 0.949, 0.010, 0.010, 0.002, 0.002, 0.002, 0.002},
		Interlude:    {0.002, 0.002, 0.002, 0.002, 0.002, 0.002, 0.300, 0.678, 0.002, 0.002, 0.002, 0.002, 0.002},
		Epilogue:     {0.002, 0.002, 0.002, 0.002, 0.002, 0.002, 0.200, 0.002, 0.778, 0.002, 0.002, 0.002, 0.002},
		BonusChapter: {0.002, 0.002, 0.002, 0.002, 0.002, 0.002, 0.150, 0.002, 0.002, 0.828, 0.002, 0.002, 0.002},
		Afterword:    {0.002, 0.002, 0.002, 0.002, 0.002, 0.002, 0.020, 0.002, 0.002, 0.002, 0.958, 0.002, 0.002},
		AfterExtra:   {0.002, 0.002, 0.002, 0.002, 0.002, 0.002, 0.020, 0.002, 0.002, 0.002, 0.002, 0.958, 0.002},
		Copyright:    {0.002, 0.002, 0.002, 0.002, 0.002, 0.002, 0.020, 0.002, 0.002, 0.002, 0.002, 0.002, 0.958},
	},
}
