package sensors

// LowPass is an RC-style one-pole smoothing filter. Smaller tau means less
// smoothing.
type LowPass struct {
	tau float64
	y   float64
}

func NewLowPass(tau float64) *LowPass {
	if tau < 1e-6 {
		tau = 1e-6
	}
	return &LowPass{tau: tau}
}

// Update advances the filter by dt seconds toward x and returns the new
// smoothed value.
func (f *LowPass) Update(x, dt float64) float64 {
	alpha := dt / (f.tau + dt)
	f.y = alpha*x + (1-alpha)*f.y
	return f.y
}

// Value returns the current smoothed value without advancing.
func (f *LowPass) Value() float64 {
	return f.y
}

// FSRChannel simulates one force-sensing resistor: a raw 0..1 input smoothed
// through an RC low-pass and run through a gain stage (the amplifier in the
// real sensor chain).
type FSRChannel struct {
	ID     int
	Gain   float64
	raw    float64
	filter *LowPass
}

func NewFSRChannel(id int, tau, gain float64) *FSRChannel {
	return &FSRChannel{ID: id, Gain: gain, filter: NewLowPass(tau)}
}

// SetRaw stores the raw input level, clamped to 0..1.
func (c *FSRChannel) SetRaw(v float64) {
	c.raw = clamp01(v)
}

// Update advances the smoothing filter by dt seconds and returns the
// amplified level, clamped back to 0..1 for mapping.
func (c *FSRChannel) Update(dt float64) float64 {
	smoothed := c.filter.Update(c.raw, dt)
	return clamp01(smoothed * c.Gain)
}

// Level returns the current amplified level without advancing the filter.
func (c *FSRChannel) Level() float64 {
	return clamp01(c.filter.Value() * c.Gain)
}

// IMUSnapshot holds normalized -1..1 readings for three accelerometer and
// three gyroscope axes.
type IMUSnapshot struct {
	Ax, Ay, Az float64
	Gx, Gy, Gz float64
}

// IMU simulates a 3-axis accelerometer plus 3-axis gyroscope. Raw accel is
// accepted in g (nominal -2..+2), raw gyro in degrees/sec; both are stored
// normalized to -1..1.
type IMU struct {
	snap      IMUSnapshot
	gyroRange float64 // degrees/sec mapped to full scale
}

func NewIMU(gyroRangeDPS float64) *IMU {
	if gyroRangeDPS <= 0 {
		gyroRangeDPS = 250.0
	}
	return &IMU{gyroRange: gyroRangeDPS}
}

func (m *IMU) SetAccelRaw(ax, ay, az float64) {
	m.snap.Ax = clampUnit(ax / 2.0)
	m.snap.Ay = clampUnit(ay / 2.0)
	m.snap.Az = clampUnit(az / 2.0)
}

func (m *IMU) SetGyroRaw(gx, gy, gz float64) {
	m.snap.Gx = clampUnit(gx / m.gyroRange)
	m.snap.Gy = clampUnit(gy / m.gyroRange)
	m.snap.Gz = clampUnit(gz / m.gyroRange)
}

// Snapshot returns the current normalized readings.
func (m *IMU) Snapshot() IMUSnapshot {
	return m.snap
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func clampUnit(v float64) float64 {
	if v < -1 {
		return -1
	}
	if v > 1 {
		return 1
	}
	return v
}
