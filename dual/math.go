package dual

import (
	"fmt"
	"math"
)

// Exp returns e**a.
func Exp(a Dual) Dual {
	f := math.Exp(a.Real)
	return applyUnary(a, f, f, f)
}

// Log returns the natural logarithm of a. Fails with ErrDomain for a
// non-positive real part.
func Log(a Dual) (Dual, error) {
	if a.Real <= 0 {
		return Dual{}, fmt.Errorf("%w: log of %v", ErrDomain, a.Real)
	}
	inv := 1.0 / a.Real
	return applyUnary(a, math.Log(a.Real), inv, -inv*inv), nil
}

// Sqrt returns the square root of a. Fails with ErrDomain for a negative real part.
func Sqrt(a Dual) (Dual, error) {
	if a.Real < 0 {
		return Dual{}, fmt.Errorf("%w: sqrt of %v", ErrDomain, a.Real)
	}
	s := math.Sqrt(a.Real)
	if s == 0 {
		return Dual{}, fmt.Errorf("%w: sqrt derivative at zero", ErrDomain)
	}
	return applyUnary(a, s, 0.5/s, -0.25/(s*s*s)), nil
}

// Sin returns the sine of a.
func Sin(a Dual) Dual {
	return applyUnary(a, math.Sin(a.Real), math.Cos(a.Real), -math.Sin(a.Real))
}

// Cos returns the cosine of a.
func Cos(a Dual) Dual {
	return applyUnary(a, math.Cos(a.Real), -math.Sin(a.Real), -math.Cos(a.Real))
}

// Pow returns a**p for a plain scalar exponent, via the chain rule on x^p.
func Pow(a Dual, p float64) Dual {
	f := math.Pow(a.Real, p)
	fp := p * math.Pow(a.Real, p-1)
	fpp := p * (p - 1) * math.Pow(a.Real, p-2)
	return applyUnary(a, f, fp, fpp)
}

// PowDual returns a**b for dual base and exponent, computed as exp(b*log(a)).
// Fails with ErrDomain for a non-positive base.
func PowDual(a, b Dual) (Dual, error) {
	la, err := Log(a)
	if err != nil {
		return Dual{}, err
	}
	return Exp(Mul(b, la)), nil
}

const invSqrt2Pi = 0.3989422804014327 // 1/sqrt(2*pi)

// NormPdf returns the standard normal density at a.
func NormPdf(a Dual) Dual {
	f := invSqrt2Pi * math.Exp(-0.5*a.Real*a.Real)
	// phi'(x) = -x phi(x); phi''(x) = (x^2 - 1) phi(x)
	return applyUnary(a, f, -a.Real*f, (a.Real*a.Real-1)*f)
}

// NormCdf returns the standard normal cumulative distribution at a.
func NormCdf(a Dual) Dual {
	f := 0.5 * math.Erfc(-a.Real/math.Sqrt2)
	pdf := invSqrt2Pi * math.Exp(-0.5*a.Real*a.Real)
	return applyUnary(a, f, pdf, -a.Real*pdf)
}

// InvNormCdf returns the standard normal quantile of a. Fails with ErrDomain
// outside (0, 1). The real part uses the Acklam rational approximation
// polished with one Halley step; derivatives follow from the inverse function
// rule 1/phi(z).
func InvNormCdf(a Dual) (Dual, error) {
	if a.Real <= 0 || a.Real >= 1 {
		return Dual{}, fmt.Errorf("%w: inverse normal cdf of %v", ErrDomain, a.Real)
	}
	z := acklam(a.Real)
	// One Halley polish step.
	e := 0.5*math.Erfc(-z/math.Sqrt2) - a.Real
	u := e * math.Sqrt(2*math.Pi) * math.Exp(0.5*z*z)
	z = z - u/(1+0.5*z*u)

	pdf := invSqrt2Pi * math.Exp(-0.5*z*z)
	fp := 1.0 / pdf
	// d2z/dp2 = z / phi(z)^2
	fpp := z / (pdf * pdf)
	return applyUnary(a, z, fp, fpp), nil
}

// acklam is Peter Acklam's rational approximation for the inverse normal CDF,
// accurate to ~1.15e-9 before polishing.
func acklam(p float64) float64 {
	a := [6]float64{-3.969683028665376e+01, 2.209460984245205e+02, -2.759285104469687e+02,
		1.383577518672690e+02, -3.066479806614716e+01, 2.506628277459239e+00}
	b := [5]float64{-5.447609879822406e+01, 1.615858368580409e+02, -1.556989798598866e+02,
		6.680131188771972e+01, -1.328068155288572e+01}
	c := [6]float64{-7.784894002430293e-03, -3.223964580411365e-01, -2.400758277161838e+00,
		-2.549732539343734e+00, 4.374664141464968e+00, 2.938163982698783e+00}
	d := [4]float64{7.784695709041462e-03, 3.224671290700398e-01, 2.445134137142996e+00,
		3.754408661907416e+00}

	const pLow = 0.02425
	switch {
	case p < pLow:
		q := math.Sqrt(-2 * math.Log(p))
		return (((((c[0]*q+c[1])*q+c[2])*q+c[3])*q+c[4])*q + c[5]) /
			((((d[0]*q+d[1])*q+d[2])*q+d[3])*q + 1)
	case p > 1-pLow:
		q := math.Sqrt(-2 * math.Log(1-p))
		return -(((((c[0]*q+c[1])*q+c[2])*q+c[3])*q+c[4])*q + c[5]) /
			((((d[0]*q+d[1])*q+d[2])*q+d[3])*q + 1)
	default:
		q := p - 0.5
		r := q * q
		return (((((a[0]*r+a[1])*r+a[2])*r+a[3])*r+a[4])*r + a[5]) * q /
			(((((b[0]*r+b[1])*r+b[2])*r+b[3])*r+b[4])*r + 1)
	}
}
