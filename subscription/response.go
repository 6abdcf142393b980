package subscription

// Public messages.
const (
	MessageSubscribed        = "Thank you for subscribing! You will receive updates from us soon."
	MessageReactivated       = "Welcome back! Your subscription has been reactivated."
	MessageAlreadySubscribed = "You are already subscribed to our newsletter."
	MessageMaskedRejection   = "Thank you for subscribing! Please check your email for confirmation."
	MessageMaskedRateLimit   = "Thank you for your interest! You will receive updates soon."
	MessageRateLimited       = "Too many subscriptions from your network today. Please try again tomorrow."
	MessageUnsubscribed      = "You have been successfully unsubscribed from our newsletter."
	MessageNotSubscribed     = "Email not found or already unsubscribed."
	MessageGenericFailure    = "Something went wrong. Please try again."
)

// Policy controls what the public endpoint reveals.
//
// With MaskRejections set, rejected and rate-limited signups look exactly like
// successful ones. Abusive senders learn nothing about which domains or IPs
// are filtered; admins still see the real reason in the rejected list.
type Policy struct {
	MaskRejections bool
}

func DefaultPolicy() Policy {
	return Policy{MaskRejections: true}
}

// Response is the JSON body of the public subscribe endpoint.
type Response struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	Corrected string `json:"corrected,omitempty"`
}

func PublicResponse(r Result, p Policy) Response {
	switch r.Outcome {
	case OutcomeSubscribed:
		return Response{Success: true, Message: MessageSubscribed, Corrected: r.Corrected}
	case OutcomeReactivated:
		return Response{Success: true, Message: MessageReactivated}
	case OutcomeAlreadySubscribed:
		return Response{Success: true, Message: MessageAlreadySubscribed}
	case OutcomeRateLimited:
		if p.MaskRejections {
			return Response{Success: true, Message: MessageMaskedRateLimit}
		}
		return Response{Success: false, Message: MessageRateLimited}
	case OutcomeRejected:
		if p.MaskRejections {
			return Response{Success: true, Message: MessageMaskedRejection}
		}
		return Response{Success: false, Message: r.Reason}
	default:
		return Response{Success: false, Message: MessageGenericFailure}
	}
}
