package detection

// cocoCategories are the object classes a COCO-SSD model can report.
var cocoCategories = []string{
	"person", "bicycle", "car", "motorcycle", "airplane", "bus", "train", "truck",
	"boat", "traffic light", "fire hydrant", "stop sign", "parking meter", "bench",
	"cat", "dog", "horse", "sheep", "cow", "elephant", "bear", "zebra", "giraffe",
	"backpack", "umbrella", "handbag", "tie", "suitcase", "frisbee", "skis",
	"snowboard", "sports ball", "kite", "baseball bat", "baseball glove", "skateboard",
	"surfboard", "tennis racket", "bottle", "wine glass", "cup", "fork", "knife",
	"spoon", "bowl", "banana", "apple", "sandwich", "orange", "broccoli", "carrot",
	"hot dog", "pizza", "donut", "cake", "chair", "couch", "potted plant", "bed",
	"dining table", "toilet", "tv", "laptop", "mouse", "remote", "keyboard", "microwave",
	"oven", "toaster", "sink", "refrigerator", "book", "clock", "vase", "scissors",
	"teddy bear", "hair drier", "toothbrush",
}

// Categories returns the supported object categories in display order.
// The returned slice is a copy.
func Categories() []string {
	out := make([]string, len(cocoCategories))
	copy(out, cocoCategories)
	return out
}

// IsKnownCategory reports whether label is one of Categories.
func IsKnownCategory(label string) bool {
	for _, c := range cocoCategories {
		if c == label {
			return true
		}
	}
	return false
}
