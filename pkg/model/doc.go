// Package model defines the types shared by the feedback widget: the host
// configuration (Config, FeedbackOption, Messages), the renderable FormModel
// produced by the builder, the live FeedbackForm snapshot, the environment
// metadata attached to submissions (DeviceInfo, PlayerError) and the Status
// rendered for one widget instance. Builders live in internal/model but
// return the types defined here.
package model
