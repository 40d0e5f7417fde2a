// Package geom provides the 2D linear algebra used by the physics core.
//
// All values are immutable; every operation returns a new value:
//
//   - [Vec2]: a 2D vector (an alias of the setanarut/vec type, so its
//     Add/Sub/Scale/Dot/Cross/Neg/Mag/MagSq methods are available)
//   - [Mat22]: a 2x2 row-major matrix, mostly used for rotations
//
// # Conventions
//
// [Cross] with a scalar rotates a vector by -90 degrees and scales it, so
// the tangent of a contact normal n is Cross(n, 1). [CrossVec] is the
// scalar 2D cross product used for angular impulse.
//
// [Normalize] never returns NaN: a zero-length input yields [DefaultNormal].
package geom
