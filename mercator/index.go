package mercator

//EncodeQuadkey 四叉树编码
func EncodeQuadkey(x, y uint32, zoom int) uint64 {
	var index uint64
	for i := zoom; i > 0; i-- {
		mask := uint32(1) << uint(i-1)
		var digit uint64
		if x&mask != 0 {
			digit |= 1
		}
		if y&mask != 0 {
			digit |= 2
		}
		index = index<<2 | digit
	}
	// 级别放在高位，避免不同级别冲突
	return uint64(zoom)<<58 | index
}

//HilbertIndex Hilbert编码，用于按空间邻近排序瓦片
func HilbertIndex(x, y uint32, zoom int) uint64 {
	n := uint64(1) << uint(zoom)
	return hilbertXY2d(n, uint64(x), uint64(y))
}

func hilbertRot(n uint64, x, y *uint64, rx, ry uint64) {
	if ry == 0 {
		if rx == 1 {
			*x = n - 1 - *x
			*y = n - 1 - *y
		}
		*x, *y = *y, *x
	}
}

func hilbertXY2d(n uint64, x, y uint64) uint64 {
	var d uint64
	for s := n / 2; s > 0; s /= 2 {
		var rx, ry uint64
		if x&s != 0 {
			rx = 1
		}
		if y&s != 0 {
			ry = 1
		}
		d += s * s * ((3 * rx) ^ ry)
		hilbertRot(n, &x, &y, rx, ry)
	}
	return d
}
