package wizard

// ExampleFaces are stock portraits offered on the upload step for users
// who want to try the flow without a photo of their own.
var ExampleFaces = []string{
	"https://images.unsplash.com/photo-1618160702438-9b02ab6515c9",
	"https://images.unsplash.com/photo-1721322800607-8c38375eef04",
	"https://images.unsplash.com/photo-1582562124811-c09040d0a901",
}

// Labels returns the step labels in flow order.
func Labels() []string {
	out := make([]string, 0, TotalSteps)
	for s := StepUploadFace; s <= StepDone; s++ {
		out = append(out, s.String())
	}
	return out
}
