package multibody

import (
	"math"
	"math/rand"
	"testing"

	. "github.com/onsi/gomega"
	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/mat"
)

func randomVec(r *rand.Rand, n int, scale float64) []float64 {
	x := make([]float64, n)
	for i := range x {
		x[i] = scale * (2*r.Float64() - 1)
	}
	return x
}

func TestPointMassStatics(t *testing.T) {
	g := NewWithT(t)
	m := NewPointMass()
	d := NewData(m)

	q := []float64{0.1, -0.2, 0.3}
	v := make([]float64, 3)

	M := CRBA(m, d, q)
	g.Expect(mat.Equal(M, mat.NewDiagDense(3, []float64{1, 1, 1}))).To(BeTrue())

	nle := NonLinearEffects(m, d, q, v)
	g.Expect(nle).To(Equal([]float64{0, 0, 9.81}))

	a := make([]float64, 3)
	g.Expect(ABA(m, d, q, v, []float64{0, 0, 9.81}, a)).To(Succeed())
	for _, ai := range a {
		g.Expect(ai).To(BeNumerically("~", 0, 1e-12))
	}
}

func TestCRBAMatchesRNEAColumns(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	for _, m := range []*Model{NewPendulumFoot(), NewBiped()} {
		t.Run(m.Name, func(t *testing.T) {
			d := NewData(m)
			nv := m.NV()
			q := randomVec(r, nv, 0.5)
			zero := make([]float64, nv)

			CRBA(m, d, q)
			M := mat.DenseCopyOf(d.M)

			base := append([]float64(nil), RNEA(m, d, q, zero, zero)...)
			for j := 0; j < nv; j++ {
				e := make([]float64, nv)
				e[j] = 1
				col := RNEA(m, d, q, zero, e)
				for i := 0; i < nv; i++ {
					if got := col[i] - base[i]; math.Abs(got-M.At(i, j)) > 1e-9 {
						t.Fatalf("M[%d,%d] = %v, rnea column gives %v", i, j, M.At(i, j), got)
					}
				}
			}

			if !mat.EqualApprox(M, M.T(), 1e-12) {
				t.Error("mass matrix is not symmetric")
			}
		})
	}
}

func TestFrameJacobianMatchesPositionDerivative(t *testing.T) {
	r := rand.New(rand.NewSource(11))
	m := NewBiped()
	d := NewData(m)
	nv := m.NV()
	frame, ok := m.FrameID(LeftSoleFrame)
	if !ok {
		t.Fatal("left sole frame missing")
	}

	q := randomVec(r, nv, 0.4)
	ForwardKinematics(m, d, q, nil, nil)
	J := mat.NewDense(6, nv, nil)
	FrameJacobian(m, d, frame, World, J)

	want := mat.NewDense(3, nv, nil)
	scratch := NewData(m)
	fd.Jacobian(want, func(out, x []float64) {
		ForwardKinematics(m, scratch, x, nil, nil)
		p := FramePlacement(scratch, frame).P
		copy(out, p[:])
	}, q, centralDiff)

	if !mat.EqualApprox(J.Slice(0, 3, 0, nv), want, 1e-7) {
		t.Errorf("world jacobian differs from finite differences\ngot  %v\nwant %v",
			mat.Formatted(J.Slice(0, 3, 0, nv)), mat.Formatted(want))
	}

	local := mat.NewDense(6, nv, nil)
	FrameJacobian(m, d, frame, Local, local)
	R := FramePlacement(d, frame).R
	for c := 0; c < nv; c++ {
		for r := 0; r < 3; r++ {
			want := 0.0
			for k := 0; k < 3; k++ {
				want += R.At(r, k) * local.At(k, c)
			}
			if math.Abs(want-J.At(r, c)) > 1e-12 {
				t.Fatalf("local jacobian does not rotate into world jacobian at (%d,%d)", r, c)
			}
		}
	}
}

func TestClassicalAccelerationMatchesTrajectory(t *testing.T) {
	r := rand.New(rand.NewSource(3))
	m := NewPendulumFoot()
	d := NewData(m)
	nv := m.NV()
	frame, _ := m.FrameID(FootFrame)

	q := randomVec(r, nv, 0.6)
	v := randomVec(r, nv, 1.0)
	a := randomVec(r, nv, 1.0)

	ForwardKinematics(m, d, q, v, a)
	acc := FrameClassicalAcceleration(m, d, frame, World)

	pos := func(t float64) [3]float64 {
		qt := make([]float64, nv)
		for i := range qt {
			qt[i] = q[i] + v[i]*t + 0.5*a[i]*t*t
		}
		s := NewData(m)
		ForwardKinematics(m, s, qt, nil, nil)
		return FramePlacement(s, frame).P
	}

	h := 1e-4
	p0, pp, pm := pos(0), pos(h), pos(-h)
	for i := 0; i < 3; i++ {
		want := (pp[i] - 2*p0[i] + pm[i]) / (h * h)
		if math.Abs(acc[i]-want) > 1e-4 {
			t.Errorf("acc[%d] = %v, trajectory gives %v", i, acc[i], want)
		}
	}
}

func TestReducedModelKeepsMassSubmatrix(t *testing.T) {
	g := NewWithT(t)
	r := rand.New(rand.NewSource(5))
	full := NewBiped()
	la, _ := full.JointID("left_ankle_pitch")
	ra, _ := full.JointID("right_ankle_pitch")

	qFull := randomVec(r, full.NQ(), 0.4)
	red, kept, err := full.Reduce([]int{la, ra}, qFull)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(red.NV()).To(Equal(full.NV() - 2))
	g.Expect(kept).To(HaveLen(red.NV()))
	g.Expect(red.TotalMass()).To(BeNumerically("~", full.TotalMass(), 1e-12))

	qRed := make([]float64, red.NQ())
	for i, j := range kept {
		qRed[i] = qFull[j]
	}

	dFull, dRed := NewData(full), NewData(red)
	CRBA(full, dFull, qFull)
	CRBA(red, dRed, qRed)
	for i, ji := range kept {
		for j, jj := range kept {
			g.Expect(dRed.M.At(i, j)).To(BeNumerically("~", dFull.M.At(ji, jj), 1e-9))
		}
	}

	ForwardKinematics(full, dFull, qFull, nil, nil)
	ForwardKinematics(red, dRed, qRed, nil, nil)
	for _, name := range []string{LeftSoleFrame, RightSoleFrame} {
		ff, _ := full.FrameID(name)
		fr, _ := red.FrameID(name)
		pf, pr := FramePlacement(dFull, ff).P, FramePlacement(dRed, fr).P
		g.Expect(pr.ApproxEqualThreshold(pf, 1e-12)).To(BeTrue(), name)
	}
}

func TestBipedNeutralStands(t *testing.T) {
	m := NewBiped()
	d := NewData(m)
	ForwardKinematics(m, d, BipedNeutral(m), nil, nil)
	for _, name := range []string{LeftSoleFrame, RightSoleFrame} {
		f, _ := m.FrameID(name)
		if z := FramePlacement(d, f).P.Z(); math.Abs(z) > 1e-12 {
			t.Errorf("%s height = %v, want 0", name, z)
		}
	}
}

func TestParseReferenceFrame(t *testing.T) {
	tests := []struct {
		in   string
		want ReferenceFrame
		ok   bool
	}{
		{"local", Local, true},
		{"WORLD", World, true},
		{" lwa ", LocalWorldAligned, true},
		{"elsewhere", Local, false},
	}
	for _, tt := range tests {
		got, err := ParseReferenceFrame(tt.in)
		if (err == nil) != tt.ok || got != tt.want {
			t.Errorf("ParseReferenceFrame(%q) = %v, %v", tt.in, got, err)
		}
	}
}

func TestPointMassEnergy(t *testing.T) {
	g := NewWithT(t)
	m := NewPointMass()
	d := NewData(m)
	ke, pe := Energy(m, d, []float64{0.5, 0, 2}, []float64{1, 2, 0})
	g.Expect(ke).To(BeNumerically("~", 2.5, 1e-12))
	g.Expect(pe).To(BeNumerically("~", 2*9.81, 1e-12))
	g.Expect(CenterOfMass(m, d).X()).To(BeNumerically("~", 0.5, 1e-12))
}

func TestBipedCenterOfMassIsCentered(t *testing.T) {
	g := NewWithT(t)
	m := NewBiped()
	d := NewData(m)
	q := BipedNeutral(m)
	ForwardKinematics(m, d, q, nil, nil)
	com := CenterOfMass(m, d)
	g.Expect(com.Y()).To(BeNumerically("~", 0, 1e-12))
	g.Expect(com.Z()).To(BeNumerically(">", 0))
	g.Expect(com.Z()).To(BeNumerically("<", BipedStandingHeight+0.1))
}

func TestCenterOfMassJacobian(t *testing.T) {
	g := NewWithT(t)
	r := rand.New(rand.NewSource(17))
	m := NewBiped()
	d := NewData(m)
	nv := m.NV()
	q, v := randomVec(r, nv, 0.4), randomVec(r, nv, 1)
	ForwardKinematics(m, d, q, v, nil)

	jcom := mat.NewDense(3, nv, nil)
	CenterOfMassJacobian(m, d, jcom)

	scratch := NewData(m)
	want := mat.NewDense(3, nv, nil)
	fd.Jacobian(want, func(out, x []float64) {
		ForwardKinematics(m, scratch, x, nil, nil)
		com := CenterOfMass(m, scratch)
		copy(out, com[:])
	}, q, centralDiff)
	g.Expect(mat.EqualApprox(jcom, want, 1e-7)).To(BeTrue())

	var vcom mat.VecDense
	vcom.MulVec(jcom, mat.NewVecDense(nv, v))
	got := CenterOfMassVelocity(m, d)
	for i := 0; i < 3; i++ {
		g.Expect(got[i]).To(BeNumerically("~", vcom.AtVec(i), 1e-10))
	}

	// d(Jcom v)/dq by differencing the analytical Jacobian.
	dvdq := mat.NewDense(3, nv, nil)
	CenterOfMassVelocityDerivative(m, d, q, v, dvdq)
	j := mat.NewDense(3, nv, nil)
	wantDq := mat.NewDense(3, nv, nil)
	fd.Jacobian(wantDq, func(out, x []float64) {
		ForwardKinematics(m, scratch, x, nil, nil)
		CenterOfMassJacobian(m, scratch, j)
		var jv mat.VecDense
		jv.MulVec(j, mat.NewVecDense(nv, v))
		for i := range out {
			out[i] = jv.AtVec(i)
		}
	}, q, &fd.JacobianSettings{Formula: fd.Central})
	g.Expect(mat.EqualApprox(dvdq, wantDq, 1e-6)).To(BeTrue())
}
