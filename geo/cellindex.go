package geo

import "math"

// SpatialCellIndex floors a canonicalized position onto the (ix,iy,iz)
// spatial grid cell it falls in, clamping to the last cell to absorb
// floating-point edge cases at the upper box boundary. Used by the
// driver's per-particle field lookups; the distribution sampler has its
// own 5D cell indexing.
func SpatialCellIndex(p Position, grid GridSize, width GridWidth) (int, int, int) {
	ix := int(math.Floor(p.X / width.Dx))
	iy := int(math.Floor(p.Y / width.Dy))
	iz := int(math.Floor(p.Z / width.Dz))
	if ix >= grid.Nx {
		ix = grid.Nx - 1
	}
	if iy >= grid.Ny {
		iy = grid.Ny - 1
	}
	if iz >= grid.Nz {
		iz = grid.Nz - 1
	}
	return ix, iy, iz
}
