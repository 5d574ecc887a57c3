package flow

// Strain returns E = ½(∇u + ∇uᵀ), the symmetric part of the velocity
// gradient, consumed by the Jeffrey strain modifier.
func Strain(grad [3][3]float64) Tensor3 {
	var e Tensor3
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			e[i][j] = 0.5 * (grad[i][j] + grad[j][i])
		}
	}
	return e
}

// VorticityVector returns the vorticity 3-vector ω = (∂u_z/∂y − ∂u_y/∂z,
// ∂u_x/∂z − ∂u_z/∂x, ∂u_y/∂x − ∂u_x/∂y), equal to ∇×u and twice the axial
// vector of the antisymmetric part W = ½(∇u − ∇uᵀ). The Langevin builder's
// jeffrey_vorticity modifier consumes this 3-vector form (an explicit
// choice among the two mathematically equivalent representations.
func VorticityVector(grad [3][3]float64) [3]float64 {
	return [3]float64{
		grad[2][1] - grad[1][2],
		grad[0][2] - grad[2][0],
		grad[1][0] - grad[0][1],
	}
}
