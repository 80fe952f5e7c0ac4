package imu

import "time"

// Sample is a single raw IMU reading reported by the gimbal, in the device
// body frame. Accel and gyro are raw device counts; DeviceTimeUsec is the
// device's own clock at sample time.
type Sample struct {
	Frame string `json:"frame"` // "gimbal_body"

	Ax int16 `json:"ax"` // accel
	Ay int16 `json:"ay"`
	Az int16 `json:"az"`

	Gx int16 `json:"gx"` // gyro
	Gy int16 `json:"gy"`
	Gz int16 `json:"gz"`

	DeviceTimeUsec uint64    `json:"device_time_usec"`
	Stamp          time.Time `json:"stamp"`
}
