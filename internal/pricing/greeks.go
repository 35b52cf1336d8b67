package pricing

import "math"

// Greeks are the BSM sensitivities of one contract. Vega, Theta and Rho are
// scaled by 0.01, i.e. per one percentage point move of their input.
type Greeks struct {
	Delta float64
	Gamma float64
	Vega  float64
	Theta float64
	Rho   float64
}

// ComputeGreeks returns all five Greeks. The closed forms are evaluated for
// every style; for American contracts they are the European approximation.
func ComputeGreeks(p Params) (Greeks, error) {
	if err := p.Validate(); err != nil {
		return Greeks{}, err
	}

	g := Greeks{
		Delta: delta(p),
		Gamma: gamma(p),
		Vega:  vega(p),
		Theta: theta(p),
		Rho:   rho(p),
	}
	for name, v := range map[string]float64{
		"delta": g.Delta, "gamma": g.Gamma, "vega": g.Vega, "theta": g.Theta, "rho": g.Rho,
	} {
		if _, err := checkResult(name, v); err != nil {
			return Greeks{}, err
		}
	}
	return g, nil
}

// Delta is kind*e^(-qt)*N(kind*d1).
func Delta(p Params) (float64, error) {
	if err := p.Validate(); err != nil {
		return 0, err
	}
	return checkResult("delta", delta(p))
}

// Gamma is e^(-qt)*pdf(d1) / (s0*sigma*sqrt(t)).
func Gamma(p Params) (float64, error) {
	if err := p.Validate(); err != nil {
		return 0, err
	}
	return checkResult("gamma", gamma(p))
}

// Vega is 0.01*s0*e^(-qt)*pdf(d1)*sqrt(t).
func Vega(p Params) (float64, error) {
	if err := p.Validate(); err != nil {
		return 0, err
	}
	return checkResult("vega", vega(p))
}

// Theta is the per-year time decay scaled by 0.01.
func Theta(p Params) (float64, error) {
	if err := p.Validate(); err != nil {
		return 0, err
	}
	return checkResult("theta", theta(p))
}

// Rho is 0.01*kind*k*t*e^(-rt)*N(kind*d2).
func Rho(p Params) (float64, error) {
	if err := p.Validate(); err != nil {
		return 0, err
	}
	return checkResult("rho", rho(p))
}

func delta(p Params) float64 {
	kind := p.Kind.Sign()
	return kind * math.Exp(-p.Dividend*p.T) * normCDF(kind*d1(p))
}

func gamma(p Params) float64 {
	return math.Exp(-p.Dividend*p.T) * normPDF(d1(p)) / (p.Spot * p.Sigma * math.Sqrt(p.T))
}

func vega(p Params) float64 {
	return 0.01 * rawVega(p)
}

// rawVega is dPrice/dSigma without scaling.
func rawVega(p Params) float64 {
	return p.Spot * math.Exp(-p.Dividend*p.T) * normPDF(d1(p)) * math.Sqrt(p.T)
}

func theta(p Params) float64 {
	kind := p.Kind.Sign()
	a := d1(p)
	b := a - p.Sigma*math.Sqrt(p.T)
	carry := p.Spot * math.Exp(-p.Dividend*p.T)
	return 0.01 * (-carry*normPDF(a)*p.Sigma/(2*math.Sqrt(p.T)) -
		kind*p.Rate*p.Strike*math.Exp(-p.Rate*p.T)*normCDF(kind*b) +
		kind*p.Dividend*carry*normCDF(kind*a))
}

func rho(p Params) float64 {
	kind := p.Kind.Sign()
	b := d1(p) - p.Sigma*math.Sqrt(p.T)
	return 0.01 * kind * p.Strike * p.T * math.Exp(-p.Rate*p.T) * normCDF(kind*b)
}
