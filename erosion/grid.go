package erosion

// Flux channel order for water flux and plus-direction soil flux.
const (
	dirL = iota
	dirR
	dirT
	dirB
)

// Cross-direction soil flux channel order.
const (
	dirTL = iota
	dirTR
	dirBL
	dirBR
)

// Neighbour offsets indexed by channel. opposite[i] is the channel a
// neighbour in direction i uses to send mass back toward this cell.
var (
	plusDX = [4]int{-1, 1, 0, 0}
	plusDY = [4]int{0, 0, -1, 1}
	plusOp = [4]int{dirR, dirL, dirB, dirT}

	crossDX = [4]int{-1, 1, -1, 1}
	crossDY = [4]int{-1, -1, 1, 1}
	crossOp = [4]int{dirBR, dirBL, dirTR, dirTL}
)

const (
	// Water depth below which velocity and capacity are treated as zero.
	minDepth = 1e-5
	// Flux sums below this are not rescaled.
	minOutflow = 1e-10
)

func inGrid(x, y, w, h int) bool {
	return x >= 0 && y >= 0 && x < w && y < h
}

func minf(a, b float32) float32 {
	if a < b {
		return a
	}
	return b
}

func maxf(a, b float32) float32 {
	if a > b {
		return a
	}
	return b
}
