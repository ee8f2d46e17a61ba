package analysis

import (
	"math"

	"github.com/rotisserie/eris"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/urbansignals/floodwatch/internal/model"
)

// RegressionVars lists the covariates of the complaint rate model.
var RegressionVars = []string{
	VarMedianIncome, VarPctCollege, VarPctPoverty, VarPctOwner,
}

// Coefficient is one term of a fitted OLS model.
type Coefficient struct {
	Variable string  `json:"variable"`
	Estimate float64 `json:"estimate"`
	StdErr   float64 `json:"std_err"`
	TValue   float64 `json:"t_value"`
	PValue   float64 `json:"p_value"`
}

// Regression holds the fitted complaint rate model. Covariates are
// standardized before fitting, so estimates are directly comparable
// across variables.
type Regression struct {
	N            int           `json:"n"`
	Intercept    Coefficient   `json:"intercept"`
	Coefficients []Coefficient `json:"coefficients"`
	RSquared     float64       `json:"r_squared"`
	AdjRSquared  float64       `json:"adj_r_squared"`
}

// TopPredictor returns the coefficient with the largest absolute
// standardized estimate.
func (r *Regression) TopPredictor() Coefficient {
	var top Coefficient
	for _, c := range r.Coefficients {
		if math.Abs(c.Estimate) >= math.Abs(top.Estimate) {
			top = c
		}
	}
	return top
}

// Fit runs OLS of complaint rate on standardized socioeconomic covariates
// over tracts with defined rates.
func Fit(summaries []model.TractSummary) (*Regression, error) {
	rows := defined(summaries)
	n := len(rows)
	p := len(RegressionVars)
	if n < p+2 {
		return nil, eris.Errorf("analysis: need at least %d tracts with defined rates, have %d", p+2, n)
	}

	y := variable(rows, VarComplaintRate)

	// Design matrix: intercept column plus standardized covariates.
	x := mat.NewDense(n, p+1, nil)
	for i := 0; i < n; i++ {
		x.Set(i, 0, 1)
	}
	for j, name := range RegressionVars {
		col := variable(rows, name)
		mean, std := stat.MeanStdDev(col, nil)
		if std == 0 || math.IsNaN(std) {
			std = 1
		}
		for i, v := range col {
			x.Set(i, j+1, (v-mean)/std)
		}
	}

	yVec := mat.NewVecDense(n, y)

	// beta = (X'X)^-1 X'y via QR.
	var qr mat.QR
	qr.Factorize(x)
	var beta mat.VecDense
	if err := qr.SolveVecTo(&beta, false, yVec); err != nil {
		return nil, eris.Wrap(err, "analysis: solve least squares")
	}

	// Residuals and error variance.
	var fitted mat.VecDense
	fitted.MulVec(x, &beta)
	rss := 0.0
	for i := 0; i < n; i++ {
		r := y[i] - fitted.AtVec(i)
		rss += r * r
	}
	yMean := stat.Mean(y, nil)
	tss := 0.0
	for i := 0; i < n; i++ {
		d := y[i] - yMean
		tss += d * d
	}

	dof := float64(n - p - 1)
	sigma2 := rss / dof

	// Covariance of beta: sigma^2 (X'X)^-1.
	var xtx mat.Dense
	xtx.Mul(x.T(), x)
	var xtxInv mat.Dense
	if err := xtxInv.Inverse(&xtx); err != nil {
		return nil, eris.Wrap(err, "analysis: invert X'X")
	}

	tDist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: dof}
	coef := func(j int, name string) Coefficient {
		est := beta.AtVec(j)
		se := math.Sqrt(sigma2 * xtxInv.At(j, j))
		t := 0.0
		pval := 1.0
		if se > 0 {
			t = est / se
			pval = 2 * tDist.Survival(math.Abs(t))
		}
		return Coefficient{Variable: name, Estimate: est, StdErr: se, TValue: t, PValue: pval}
	}

	reg := &Regression{
		N:            n,
		Intercept:    coef(0, "intercept"),
		Coefficients: make([]Coefficient, 0, p),
	}
	for j, name := range RegressionVars {
		reg.Coefficients = append(reg.Coefficients, coef(j+1, name))
	}

	if tss > 0 {
		reg.RSquared = 1 - rss/tss
		reg.AdjRSquared = 1 - (1-reg.RSquared)*float64(n-1)/dof
	}
	return reg, nil
}
