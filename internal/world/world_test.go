package world

import (
	"errors"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/rigidsim/internal/body"
	"github.com/san-kum/rigidsim/internal/collide"
	"github.com/san-kum/rigidsim/internal/geom"
	"github.com/san-kum/rigidsim/internal/shape"
	"github.com/san-kum/rigidsim/internal/solver"
)

const dt = 1.0 / 60

func boxAt(w, h, mass, x, y float64) *body.Body {
	b := body.MustNew(shape.NewBox(w, h), mass)
	b.Position = geom.V(x, y)
	return b
}

// stackWorld is a ground slab with three 20x20 boxes resting on it with no gaps.
func stackWorld(opts ...Option) (*World, []BodyID) {
	w := New(DefaultGravity, opts...)
	w.AddBody(boxAt(200, 20, body.Infinite, 0, 0))
	ids := []BodyID{
		w.AddBody(boxAt(20, 20, 10, 0, -20)),
		w.AddBody(boxAt(20, 20, 10, 0, -40)),
		w.AddBody(boxAt(20, 20, 10, 0, -60)),
	}
	return w, ids
}

var _ = Describe("World", func() {
	Describe("Update", func() {
		It("keeps a resting stack in place", func() {
			w, ids := stackWorld()
			start := make([]float64, len(ids))
			for i, id := range ids {
				b, _ := w.Body(id)
				start[i] = b.Position.Y
			}

			for i := 0; i < 300; i++ {
				Expect(w.Update(dt)).To(Succeed())
			}

			for i, id := range ids {
				b, _ := w.Body(id)
				Expect(b.Position.Y).To(BeNumerically("~", start[i], 1.0))
				Expect(b.Position.X).To(BeNumerically("~", 0, 1.0))
			}
			Expect(w.Steps()).To(Equal(300))
			Expect(w.Time()).To(BeNumerically("~", 5, 1e-9))
		})

		It("lets a free body fall under gravity", func() {
			w := New(DefaultGravity)
			id := w.AddBody(boxAt(10, 10, 1, 0, 0))
			Expect(w.Update(0.5)).To(Succeed())

			b, _ := w.Body(id)
			Expect(b.Velocity).To(Equal(geom.V(0, 5)))
			Expect(b.Position).To(Equal(geom.V(0, 2.5)))
		})

		It("rejects a non-positive step", func() {
			w := New(DefaultGravity)
			for _, bad := range []float64{0, -dt, math.NaN(), math.Inf(1)} {
				Expect(w.Update(bad)).To(MatchError(ErrInvalidStep))
			}
			Expect(w.Steps()).To(BeZero())
		})

		It("reports a body that blew up", func() {
			w := New(DefaultGravity)
			b := boxAt(10, 10, 1, 0, 0)
			b.Velocity = geom.V(math.NaN(), 0)
			id := w.AddBody(b)

			err := w.Update(dt)
			Expect(err).To(MatchError(ErrUnstable))

			var stepErr *StepError
			Expect(errors.As(err, &stepErr)).To(BeTrue())
			Expect(stepErr.Body).To(Equal(id))
			Expect(stepErr.Step).To(Equal(1))
		})

		It("is repeatable", func() {
			a, _ := stackWorld()
			b, _ := stackWorld()
			for i := 0; i < 120; i++ {
				Expect(a.Update(dt)).To(Succeed())
				Expect(b.Update(dt)).To(Succeed())
			}
			for i, ba := range a.Bodies() {
				bb := b.Bodies()[i]
				Expect(ba.Position).To(Equal(bb.Position))
				Expect(ba.Rotation).To(Equal(bb.Rotation))
			}
		})

		It("honours the iteration option", func() {
			w := New(DefaultGravity, WithIterations(12), WithWarmStarting(false))
			Expect(w.Iterations()).To(Equal(12))
			Expect(w.WarmStarting()).To(BeFalse())

			Expect(New(DefaultGravity, WithIterations(0)).Iterations()).To(Equal(solver.DefaultIterations))
		})
	})

	Describe("arbiters", func() {
		It("never pairs two immovable bodies", func() {
			w := New(DefaultGravity)
			a := w.AddBody(boxAt(20, 20, body.Infinite, 0, 0))
			b := w.AddBody(boxAt(20, 20, body.Infinite, 5, 0))
			Expect(collide.Collide(w.bodies[a], w.bodies[b])).NotTo(BeEmpty())

			Expect(w.Update(dt)).To(Succeed())
			_, ok := w.Arbiter(a, b)
			Expect(ok).To(BeFalse())
			Expect(w.Arbiters()).To(BeEmpty())
		})

		It("keeps one arbiter per touching pair", func() {
			w, ids := stackWorld()
			Expect(w.Update(dt)).To(Succeed())
			Expect(w.Arbiters()).To(HaveLen(3))

			arb, ok := w.Arbiter(ids[1], ids[0])
			Expect(ok).To(BeTrue())
			b0, _ := w.Body(ids[0])
			Expect(arb.HasBody(b0)).To(BeTrue())
			Expect(w.ContactCount()).To(BeNumerically(">=", 3))
		})

		It("carries accumulated impulses into the next step", func() {
			w, ids := stackWorld()
			for i := 0; i < 30; i++ {
				Expect(w.Update(dt)).To(Succeed())
			}
			ground := w.BodyIDs()[0]
			arb, ok := w.Arbiter(ground, ids[0])
			Expect(ok).To(BeTrue())

			solved := map[collide.ContactID]collide.Contact{}
			for _, c := range arb.Contacts() {
				solved[c.ID] = c
			}

			w.detectCollisions()

			matched := 0
			for _, c := range arb.Contacts() {
				prev, ok := solved[c.ID]
				if !ok {
					continue
				}
				matched++
				Expect(c.Pn).To(Equal(prev.Pn))
				Expect(c.Pt).To(Equal(prev.Pt))
				Expect(c.Pn).To(BeNumerically(">", 0))
			}
			Expect(matched).To(BeNumerically(">", 0))
		})

		It("drops the arbiter when a pair separates", func() {
			w := New(geom.Zero)
			a := w.AddBody(boxAt(20, 20, 1, 0, 0))
			b := w.AddBody(boxAt(20, 20, 1, 19, 0))
			Expect(w.Update(dt)).To(Succeed())
			_, ok := w.Arbiter(a, b)
			Expect(ok).To(BeTrue())

			bb, _ := w.Body(b)
			bb.Position = geom.V(100, 0)
			Expect(w.Update(dt)).To(Succeed())
			_, ok = w.Arbiter(a, b)
			Expect(ok).To(BeFalse())
		})
	})

	Describe("RemoveBody", func() {
		It("evicts arbiters and joints that reference the body", func() {
			w, ids := stackWorld()
			Expect(w.Update(dt)).To(Succeed())

			top, _ := w.Body(ids[2])
			mid, _ := w.Body(ids[1])
			w.AddJoint(solver.NewJoint(mid, top, geom.V(0, -50)))

			Expect(w.RemoveBody(ids[2])).To(BeTrue())
			Expect(w.RemoveBody(ids[2])).To(BeFalse())

			for _, arb := range w.Arbiters() {
				Expect(arb.HasBody(top)).To(BeFalse())
			}
			_, ok := w.Arbiter(ids[1], ids[2])
			Expect(ok).To(BeFalse())
			Expect(w.Joints()).To(BeEmpty())
			Expect(w.Len()).To(Equal(3))
			_, ok = w.Body(ids[2])
			Expect(ok).To(BeFalse())
		})
	})

	Describe("joints", func() {
		It("keeps a pendulum at its length", func() {
			w := New(DefaultGravity)
			pivot := boxAt(2, 2, body.Infinite, 0, 0)
			bob := boxAt(4, 4, 5, 30, 0)
			w.AddBody(pivot)
			w.AddBody(bob)
			j := solver.NewJoint(pivot, bob, geom.V(0, 0))
			w.AddJoint(j)
			w.AddJoint(j)
			Expect(w.Joints()).To(HaveLen(1))

			for i := 0; i < 240; i++ {
				Expect(w.Update(dt)).To(Succeed())
			}
			Expect(bob.Position.Mag()).To(BeNumerically("~", 30, 1.0))
			Expect(bob.Position.Y).To(BeNumerically(">", 0))

			Expect(w.RemoveJoint(j)).To(BeTrue())
			Expect(w.RemoveJoint(j)).To(BeFalse())
		})
	})

	Describe("command queue", func() {
		It("defers mutations until the next update", func() {
			w := New(DefaultGravity)
			id := w.QueueAddBody(boxAt(10, 10, 1, 0, 0))
			w.QueueForce(id, geom.V(60, 0), 0)
			Expect(w.Pending()).To(Equal(2))
			Expect(w.Len()).To(BeZero())

			Expect(w.Update(dt)).To(Succeed())
			Expect(w.Pending()).To(BeZero())
			b, ok := w.Body(id)
			Expect(ok).To(BeTrue())
			Expect(b.Velocity.X).To(BeNumerically("~", 1, 1e-9))
			Expect(b.Force).To(Equal(geom.Zero))
		})

		It("reserves distinct ids across direct and queued adds", func() {
			w := New(DefaultGravity)
			q := w.QueueAddBody(boxAt(1, 1, 1, 0, 0))
			d := w.AddBody(boxAt(1, 1, 1, 5, 0))
			Expect(q).NotTo(Equal(d))
			Expect(w.Flush()).To(Succeed())
			Expect(w.BodyIDs()).To(Equal([]BodyID{d, q}))
		})

		It("applies every command and joins the failures", func() {
			w := New(geom.Zero)
			id := w.AddBody(boxAt(10, 10, 1, 0, 0))
			w.QueueRemoveBody(BodyID(99))
			w.QueueMove(id, geom.V(7, 8), 0.5)
			w.QueueSetVelocity(BodyID(98), geom.V(1, 1), 0)
			w.QueueRemoveJoint(solver.NewJoint(w.bodies[id], w.bodies[id], geom.Zero))

			err := w.Update(dt)
			Expect(err).To(MatchError(ErrUnknownBody))
			Expect(err).To(MatchError(ErrUnknownJoint))
			Expect(err).NotTo(MatchError(ErrUnstable))

			b, _ := w.Body(id)
			Expect(b.Position).To(Equal(geom.V(7, 8)))
			Expect(b.Rotation).To(Equal(0.5))
		})

		It("removes queued bodies and joints", func() {
			w := New(DefaultGravity)
			a := w.AddBody(boxAt(10, 10, 1, 0, 0))
			b := w.AddBody(boxAt(10, 10, 1, 20, 0))
			j := solver.NewJoint(w.bodies[a], w.bodies[b], geom.V(10, 0))
			w.QueueAddJoint(j)
			Expect(w.Flush()).To(Succeed())
			Expect(w.Joints()).To(HaveLen(1))

			w.QueueRemoveJoint(j)
			w.QueueRemoveBody(a)
			Expect(w.Flush()).To(Succeed())
			Expect(w.Joints()).To(BeEmpty())
			Expect(w.BodyIDs()).To(Equal([]BodyID{b}))
		})
	})

	Describe("queries", func() {
		var (
			w      *World
			ground BodyID
			crate  BodyID
		)

		BeforeEach(func() {
			w = New(DefaultGravity)
			ground = w.AddBody(boxAt(740, 50, body.Infinite, 320, 455))
			crate = w.AddBody(boxAt(30, 30, 20000, 320, 400))
		})

		It("picks the body under a point", func() {
			id, ok := w.BodyAt(geom.V(325, 395))
			Expect(ok).To(BeTrue())
			Expect(id).To(Equal(crate))

			id, ok = w.BodyAt(geom.V(100, 460))
			Expect(ok).To(BeTrue())
			Expect(id).To(Equal(ground))

			_, ok = w.BodyAt(geom.V(100, 100))
			Expect(ok).To(BeFalse())
		})

		It("checks placement against existing bodies", func() {
			Expect(w.CanPlace(boxAt(30, 30, 1, 320, 380))).To(BeFalse())
			Expect(w.CanPlace(boxAt(30, 30, 1, 100, 300))).To(BeTrue())
		})

		It("culls bodies below the line", func() {
			lost := w.AddBody(boxAt(10, 10, 1, 0, 2000))
			Expect(w.Cull(960)).To(Equal([]BodyID{lost}))
			Expect(w.Len()).To(Equal(2))
			Expect(w.Cull(960)).To(BeEmpty())
		})

		It("reports energy and penetration", func() {
			Expect(w.KineticEnergy()).To(BeZero())
			b, _ := w.Body(crate)
			b.Velocity = geom.V(0, 1)
			Expect(w.KineticEnergy()).To(BeNumerically("~", 10000, 1e-6))

			b.Velocity = geom.Zero
			Expect(w.Update(dt)).To(Succeed())
			Expect(w.MaxPenetration()).To(BeNumerically(">=", 0))
		})
	})
})
