package color

import "fmt"

type rgb struct {
	// [0-255]
	r, g, b int
}

func (c rgb) hex() string {
	return fmt.Sprintf("#%02X%02X%02X", c.r, c.g, c.b)
}

type hsl struct {
	// [0-1]
	h, s, l float64
}

func (c hsl) rgb() rgb {
	if c.s == 0 {
		v := int(c.l * 255)
		return rgb{v, v, v}
	}

	var q float64
	if c.l < 0.5 {
		q = c.l * (1.0 + c.s)
	} else {
		q = c.l + c.s - c.l*c.s
	}
	p := 2.0*c.l - q

	return rgb{
		int(hueToRGB(p, q, c.h+(1.0/3.0)) * 255),
		int(hueToRGB(p, q, c.h) * 255),
		int(hueToRGB(p, q, c.h-(1.0/3.0)) * 255),
	}
}

func hueToRGB(p, q, t float64) float64 {
	if t < 0 {
		t += 1.0
	} else if t > 1.0 {
		t -= 1.0
	}

	switch {
	case t < 1.0/6.0:
		return p + (q-p)*6*t
	case t < 1.0/2.0:
		return q
	case t < 2.0/3.0:
		return p + (q-p)*(2.0/3.0-t)*6
	default:
		return p
	}
}
