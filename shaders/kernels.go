package shaders

import (
	"math"

	"github.com/pthm-cable/fluid/gpu"
)

func offset(uv gpu.Vec2, dx, dy float32, texel gpu.Vec2) gpu.Vec2 {
	return gpu.Vec2{X: uv.X + dx*texel.X, Y: uv.Y + dy*texel.Y}
}

func boundary(in *gpu.Invocation) gpu.Vec4 {
	target, offsets := in.Tex[0], in.Tex[1]
	scale, texel := in.Values[2].X, in.Values[3].XY()

	o := offsets.Sample(in.UV)
	if o.X == 0 && o.Y == 0 {
		return target.Sample(in.UV)
	}
	return target.Sample(offset(in.UV, o.X, o.Y, texel)).Scale(scale)
}

func advect(in *gpu.Invocation) gpu.Vec4 {
	target, velocity := in.Tex[0], in.Tex[1]
	dt := in.Values[2].X
	targetTexel, velTexel := in.Values[3].XY(), in.Values[4].XY()

	vel := gpu.Bilerp(velocity, in.UV, velTexel)
	from := gpu.Vec2{
		X: in.UV.X - dt*vel.X*velTexel.X,
		Y: in.UV.Y - dt*vel.Y*velTexel.Y,
	}
	return gpu.Bilerp(target, from, targetTexel)
}

func force(in *gpu.Invocation) gpu.Vec4 {
	loc, dir := in.Values[1].XY(), in.Values[2].XY()
	radius, scale := in.Values[3].X, in.Values[4].X

	dx, dy := in.UV.X-loc.X, in.UV.Y-loc.Y
	falloff := float32(math.Exp(-float64(dx*dx+dy*dy) / float64(radius*radius)))

	vel := in.Tex[0].Sample(in.UV)
	return gpu.Vec4{
		X: vel.X + dir.X*scale*falloff,
		Y: vel.Y + dir.Y*scale*falloff,
		W: 1,
	}
}

func jacobi(in *gpu.Invocation) gpu.Vec4 {
	b, x := in.Tex[0], in.Tex[1]
	alpha, rBeta, texel := in.Values[2], in.Values[3], in.Values[4].XY()

	l := x.Sample(offset(in.UV, -1, 0, texel))
	r := x.Sample(offset(in.UV, 1, 0, texel))
	bt := x.Sample(offset(in.UV, 0, -1, texel))
	t := x.Sample(offset(in.UV, 0, 1, texel))
	src := b.Sample(in.UV)

	return gpu.Vec4{
		X: (l.X + r.X + bt.X + t.X + alpha.X*src.X) * rBeta.X,
		Y: (l.Y + r.Y + bt.Y + t.Y + alpha.Y*src.Y) * rBeta.Y,
		W: 1,
	}
}

func divergence(in *gpu.Invocation) gpu.Vec4 {
	vel := in.Tex[0]
	texel := in.Values[1].XY()

	uL := vel.Sample(offset(in.UV, -1, 0, texel)).X
	uR := vel.Sample(offset(in.UV, 1, 0, texel)).X
	vB := vel.Sample(offset(in.UV, 0, -1, texel)).Y
	vT := vel.Sample(offset(in.UV, 0, 1, texel)).Y

	div := ((uR-uL)*texel.X + (vT-vB)*texel.Y) * 0.5
	return gpu.Vec4{X: div, Y: div, W: 1}
}

func gradient(in *gpu.Invocation) gpu.Vec4 {
	vel, p := in.Tex[0], in.Tex[1]
	texel := in.Values[2].XY()

	pL := p.Sample(offset(in.UV, -1, 0, texel)).X
	pR := p.Sample(offset(in.UV, 1, 0, texel)).X
	pB := p.Sample(offset(in.UV, 0, -1, texel)).Y
	pT := p.Sample(offset(in.UV, 0, 1, texel)).Y

	v := vel.Sample(in.UV)
	return gpu.Vec4{
		X: v.X - (pR-pL)*texel.X*0.5,
		Y: v.Y - (pT-pB)*texel.Y*0.5,
		W: 1,
	}
}

func display(in *gpu.Invocation) gpu.Vec4 {
	c := in.Tex[0].Sample(in.UV)
	c.W = 1
	return c
}

func life(in *gpu.Invocation) gpu.Vec4 {
	board := in.Tex[0]
	texel := in.Values[1].XY()

	alive := func(dx, dy float32) int {
		if board.Sample(offset(in.UV, dx, dy, texel)).X >= 0.5 {
			return 1
		}
		return 0
	}
	n := alive(-1, -1) + alive(0, -1) + alive(1, -1) +
		alive(-1, 0) + alive(1, 0) +
		alive(-1, 1) + alive(0, 1) + alive(1, 1)

	if n == 3 || (n == 2 && alive(0, 0) == 1) {
		return gpu.Vec4{X: 1, Y: 1, Z: 1, W: 1}
	}
	return gpu.Vec4{W: 1}
}

func stamp(in *gpu.Invocation) gpu.Vec4 {
	loc, radius := in.Values[1].XY(), in.Values[2].X
	cell := in.Tex[0].Sample(in.UV)

	dx, dy := in.UV.X-loc.X, in.UV.Y-loc.Y
	if float32(math.Sqrt(float64(dx*dx+dy*dy))) <= radius {
		return gpu.Vec4{X: 1, Y: 1, Z: 1, W: 1}
	}
	cell.W = 1
	return cell
}

func grains(s gpu.Sampler, uv gpu.Vec2, scale float32) float32 {
	return float32(math.Floor(float64(s.Sample(uv).X*scale) + 0.5))
}

func cellOf(uv, texel gpu.Vec2) (float32, float32) {
	return float32(math.Floor(float64(uv.X / texel.X))), float32(math.Floor(float64(uv.Y / texel.Y)))
}

func drop(in *gpu.Invocation) gpu.Vec4 {
	texel, scale := in.Values[1].XY(), in.Values[2].X
	amount, loc := in.Values[3].X, in.Values[4].XY()

	g := grains(in.Tex[0], in.UV, scale)
	cx, cy := cellOf(in.UV, texel)
	lx, ly := cellOf(loc, texel)
	if cx == lx && cy == ly {
		g = min(g+amount, scale)
	}
	return gpu.Vec4{X: g / scale, W: 1}
}

func transfer(self, other, threshold float32) float32 {
	switch {
	case other-self > threshold:
		return 1
	case self-other > threshold:
		return -1
	}
	return 0
}

func avalanche(in *gpu.Invocation) gpu.Vec4 {
	sand := in.Tex[0]
	texel, scale, threshold := in.Values[1].XY(), in.Values[2].X, in.Values[3].X

	h := grains(sand, in.UV, scale)
	flow := transfer(h, grains(sand, offset(in.UV, -1, 0, texel), scale), threshold) +
		transfer(h, grains(sand, offset(in.UV, 1, 0, texel), scale), threshold) +
		transfer(h, grains(sand, offset(in.UV, 0, -1, texel), scale), threshold) +
		transfer(h, grains(sand, offset(in.UV, 0, 1, texel), scale), threshold)
	return gpu.Vec4{X: (h + flow) / scale, W: 1}
}

const shadowSteps = 512

var (
	groundColor = gpu.Vec4{X: 0.12, Y: 0.10, Z: 0.08}
	sandColor   = gpu.Vec4{X: 0.86, Y: 0.72, Z: 0.45}
)

func shadow(in *gpu.Invocation) gpu.Vec4 {
	sand := in.Tex[0]
	texel, light := in.Values[1].XY(), in.Values[2].XY()
	slope, scale := in.Values[3].X, in.Values[4].X

	v := sand.Sample(in.UV).X
	h := v * scale

	lit := float32(1)
	for k := 1; k <= shadowSteps; k++ {
		ray := h + float32(k)*slope
		if ray > scale {
			break
		}
		p := offset(in.UV, light.X*float32(k), light.Y*float32(k), texel)
		if sand.Sample(p).X*scale > ray {
			lit = 0
			break
		}
	}

	t := min(1, 4*v)
	shade := 0.55 + 0.45*lit
	return gpu.Vec4{
		X: (groundColor.X + (sandColor.X-groundColor.X)*t) * shade,
		Y: (groundColor.Y + (sandColor.Y-groundColor.Y)*t) * shade,
		Z: (groundColor.Z + (sandColor.Z-groundColor.Z)*t) * shade,
		W: 1,
	}
}
