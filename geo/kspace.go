package geo

// KSampling returns the n wavenumbers conjugate to a periodic axis of length
// bs sampled on n grid points, ordered in FFT standard form: 0, the positive
// frequencies, the Nyquist frequency (for even n), then the negative
// frequencies in increasing magnitude order.
//
// For n = 10: k = [0, 1, 2, 3, 4, (5, -5), -4, -3, -2, -1] · (2π/bs)
// For n = 11: k = [0, 1, 2, 3, 4, 5, -5, -4, -3, -2, -1] · (2π/bs)
func KSampling(n int, bs float64) []float64 {
	a := n / 2
	b := a
	if n%2 != 0 {
		b = a + 1
	}
	step := TwoPi / bs
	values := make([]float64, b+a)
	for i := -a; i < b; i++ {
		values[i+a] = float64(i) * step
	}
	k := make([]float64, n)
	copy(k[:b], values[a:])
	copy(k[b:], values[:a])
	return k
}

// KVec3 is a 3-component wavevector.
type KVec3 struct {
	X, Y, Z float64
}

// KMesh3D returns the Cartesian tensor-product mesh of wavevectors for a 3D
// grid, res[i][j][l] = (kx[i], ky[j], kz[l]).
func KMesh3D(grid GridSize, box BoxSize) [][][]KVec3 {
	kx := KSampling(grid.Nx, box.Lx)
	ky := KSampling(grid.Ny, box.Ly)
	kz := KSampling(grid.Nz, box.Lz)

	res := make([][][]KVec3, grid.Nx)
	for i, vx := range kx {
		plane := make([][]KVec3, grid.Ny)
		for j, vy := range ky {
			line := make([]KVec3, grid.Nz)
			for l, vz := range kz {
				line[l] = KVec3{X: vx, Y: vy, Z: vz}
			}
			plane[j] = line
		}
		res[i] = plane
	}
	return res
}
