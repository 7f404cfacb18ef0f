package blend

// CompositeOver blends w straight-alpha source pixels over packed 8-bit RGB
// pixels in dst, in place:
//
//	dst = (src*a + dst*(255-a)) / 255
//
// Source pixels are delta bytes apart. With gray set each holds a gray
// value and an alpha byte, otherwise R, G, B and alpha.
func CompositeOver(dst, src []byte, w, delta int, gray bool) {
	for si, di := 0, 0; w > 0; w, si, di = w-1, si+delta, di+3 {
		d := dst[di : di+3 : di+3]
		if gray {
			v, a := src[si], src[si+1]
			d[0] = lerp255(v, d[0], a)
			d[1] = lerp255(v, d[1], a)
			d[2] = lerp255(v, d[2], a)
			continue
		}
		a := src[si+3]
		d[0] = lerp255(src[si], d[0], a)
		d[1] = lerp255(src[si+1], d[1], a)
		d[2] = lerp255(src[si+2], d[2], a)
	}
}

// Over composites a premultiplied source color over an opaque destination.
//
// Formula: S + D * (1 - Sa)
func Over(sr, sg, sb, sa, dr, dg, db byte) (r, g, b byte) {
	invSa := 255 - sa
	return addClamp(sr, mulDiv255Exact(dr, invSa)),
		addClamp(sg, mulDiv255Exact(dg, invSa)),
		addClamp(sb, mulDiv255Exact(db, invSa))
}
