// Package connect decides what the SSO connect page shows.
//
// A Controller is built from the Payload describing an in-progress link
// flow. It resolves to one of two steps: StepLinkUser, where the external
// identity is summarized next to a registration form, or StepFail. The only
// transition after construction is ReportError, which moves the controller
// to StepFail for good.
//
// Views are plain values. Turning a View into HTML is the job of the render
// package.
package connect
