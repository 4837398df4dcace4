package analysis

import "github.com/go-gl/mathgl/mgl64"

// HeightProfile returns the mean and maximum y coordinate of each frame.
// Empty frames yield zero.
func HeightProfile(frames [][]mgl64.Vec3) (mean, top []float64) {
	mean = make([]float64, len(frames))
	top = make([]float64, len(frames))
	for i, pos := range frames {
		if len(pos) == 0 {
			continue
		}
		top[i] = pos[0][1]
		for _, p := range pos {
			mean[i] += p[1]
			top[i] = max(top[i], p[1])
		}
		mean[i] /= float64(len(pos))
	}
	return mean, top
}
