package pixelconv

import (
	"fmt"
	"io"
	"strings"

	"gonum.org/v1/gonum/mat"
)

// Kernel is a square, odd-sized convolution matrix stored row-major. The
// anchor is always the centre cell, so offsets run over [-Size/2, Size/2].
//
// Weights are used as given; nothing normalizes them.
type Kernel struct {
	weights []float32
	size    int
}

// NewKernel validates and copies weights into a size x size kernel.
func NewKernel(size int, weights []float32) (*Kernel, error) {
	if err := validateKernel(size, len(weights)); err != nil {
		return nil, err
	}
	w := make([]float32, len(weights))
	copy(w, weights)
	return &Kernel{weights: w, size: size}, nil
}

func mustKernel(size int, weights []float32) *Kernel {
	k, err := NewKernel(size, weights)
	if err != nil {
		panic(err)
	}
	return k
}

func validateKernel(size, n int) error {
	if size < 1 {
		return &ConfigError{Op: "kernel", Msg: fmt.Sprintf("size must be >= 1, got %d", size)}
	}
	if size%2 == 0 {
		return &ConfigError{Op: "kernel", Msg: fmt.Sprintf("size must be odd to have a centre, got %d", size)}
	}
	if n != size*size {
		return &ConfigError{Op: "kernel", Msg: fmt.Sprintf("%dx%d kernel needs %d weights, got %d", size, size, size*size, n)}
	}
	return nil
}

// Validate re-checks the kernel invariants. The zero Kernel is invalid.
func (k *Kernel) Validate() error {
	if k == nil {
		return &ConfigError{Op: "kernel", Msg: "nil kernel"}
	}
	return validateKernel(k.size, len(k.weights))
}

func (k *Kernel) Size() int   { return k.size }
func (k *Kernel) Anchor() int { return k.size / 2 }

// Weights returns a copy of the row-major weights.
func (k *Kernel) Weights() []float32 {
	w := make([]float32, len(k.weights))
	copy(w, k.weights)
	return w
}

// At returns the weight at anchor-relative offset (kx, ky), or 0 outside the kernel.
func (k *Kernel) At(kx, ky int) float32 {
	a := k.Anchor()
	if kx < -a || kx > a || ky < -a || ky > a {
		return 0
	}
	return k.weights[(ky+a)*k.size+(kx+a)]
}

// Sum returns the sum of all weights.
func (k *Kernel) Sum() float32 {
	var s float32
	for _, w := range k.weights {
		s += w
	}
	return s
}

// Dense returns the weights as a gonum matrix.
func (k *Kernel) Dense() *mat.Dense {
	data := make([]float64, len(k.weights))
	for i, w := range k.weights {
		data[i] = float64(w)
	}
	return mat.NewDense(k.size, k.size, data)
}

// KernelFromDense converts a square gonum matrix into a Kernel.
func KernelFromDense(m mat.Matrix) (*Kernel, error) {
	r, c := m.Dims()
	if r != c {
		return nil, &ConfigError{Op: "kernel", Msg: fmt.Sprintf("matrix must be square, got %dx%d", r, c)}
	}
	weights := make([]float32, 0, r*c)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			weights = append(weights, float32(m.At(i, j)))
		}
	}
	return NewKernel(r, weights)
}

// Add returns the element-wise sum of two kernels of equal size.
func (k *Kernel) Add(other *Kernel) (*Kernel, error) {
	if err := other.Validate(); err != nil {
		return nil, err
	}
	if k.size != other.size {
		return nil, &ConfigError{Op: "kernel add", Msg: fmt.Sprintf("size mismatch %d vs %d", k.size, other.size)}
	}
	var sum mat.Dense
	sum.Add(k.Dense(), other.Dense())
	return KernelFromDense(&sum)
}

// Scale returns a kernel with every weight multiplied by f.
func (k *Kernel) Scale(f float32) *Kernel {
	w := make([]float32, len(k.weights))
	for i, v := range k.weights {
		w[i] = v * f
	}
	return &Kernel{weights: w, size: k.size}
}

// Format writes the coefficients one row per line.
func (k *Kernel) Format(w io.Writer) error {
	_, err := fmt.Fprintf(w, "%v\n", mat.Formatted(k.Dense(), mat.Squeeze()))
	return err
}

func (k *Kernel) String() string {
	var sb strings.Builder
	k.Format(&sb)
	return sb.String()
}

// IdentityKernel returns a size x size kernel that reproduces its input.
func IdentityKernel(size int) (*Kernel, error) {
	if err := validateKernel(size, size*size); err != nil {
		return nil, err
	}
	w := make([]float32, size*size)
	w[(size*size)/2] = 1
	return &Kernel{weights: w, size: size}, nil
}

// GaussianKernel5 returns the fixed 5x5 low-pass kernel (sigma ~1).
func GaussianKernel5() *Kernel {
	return mustKernel(5, []float32{
		0.0037, 0.0147, 0.0256, 0.0147, 0.0037,
		0.0147, 0.0586, 0.0952, 0.0586, 0.0147,
		0.0256, 0.0952, 0.1502, 0.0952, 0.0256,
		0.0147, 0.0586, 0.0952, 0.0586, 0.0147,
		0.0037, 0.0147, 0.0256, 0.0147, 0.0037,
	})
}

// OutlineKernel returns the 3x3 outline kernel: 8 in the centre, -1 around it.
func OutlineKernel() *Kernel {
	return mustKernel(3, []float32{
		-1, -1, -1,
		-1, 8, -1,
		-1, -1, -1,
	})
}

// SobelRightKernel responds to brightness increasing towards +x.
func SobelRightKernel() *Kernel {
	return mustKernel(3, []float32{
		-1, 0, 1,
		-2, 0, 2,
		-1, 0, 1,
	})
}

// SobelBottomKernel responds to brightness increasing towards +y.
func SobelBottomKernel() *Kernel {
	return mustKernel(3, []float32{
		-1, -2, -1,
		0, 0, 0,
		1, 2, 1,
	})
}

// SharpenKernel returns a 3x3 sharpening kernel: centre 1+strength, the four
// orthogonal neighbours -strength/4, diagonals 0.
func SharpenKernel(strength float32) *Kernel {
	edge := (-1.0 / 4.0) * strength
	return mustKernel(3, []float32{
		0, edge, 0,
		edge, strength + 1, edge,
		0, edge, 0,
	})
}

// DefaultSharpenKernel is SharpenKernel(1).
func DefaultSharpenKernel() *Kernel {
	return SharpenKernel(1)
}
