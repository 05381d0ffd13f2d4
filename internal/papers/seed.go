package papers

// DefaultUser is the acting author when the configuration names none.
var DefaultUser = Author{
	ID:          "u1",
	Name:        "Dr. Elena Rostova",
	Avatar:      "https://picsum.photos/seed/elena/100/100",
	Affiliation: "Institute of Advanced Cybernetics",
}

// Seed returns the demo library, authored partly by user.
func Seed(user Author) []Paper {
	joon := Author{ID: "u2", Name: "Joon Park", Avatar: "https://picsum.photos/seed/joon/100/100", Affiliation: "Stanford University"}
	sarah := Author{ID: "u3", Name: "Sarah Chen", Avatar: "https://picsum.photos/seed/sarah/100/100", Affiliation: "MIT Energy Initiative"}

	return []Paper{
		{
			ID:       "p1",
			Title:    "Generative Agents: Interactive Simulacra of Human Behavior",
			Abstract: "We demonstrate generative agents—computational software agents that simulate believable human behavior. Generative agents wake up, cook breakfast, and head to work; artists paint, while authors write; they form opinions, notice each other, and initiate conversations.",
			Content: `# Generative Agents: Interactive Simulacra of Human Behavior

## 1. Introduction
We demonstrate generative agents—computational software agents that simulate believable human behavior. Generative agents wake up, cook breakfast, and head to work; artists paint, while authors write; they form opinions, notice each other, and initiate conversations.

## 2. Architecture
Our architecture extends a large language model to store a complete record of the agent's experiences using natural language, synthesize those memories over time into higher-level reflections, and retrieve them dynamically to plan behavior.

## 3. Evaluation
We instantiate generative agents to populate an interactive sandbox environment inspired by The Sims, where end users can interact with a small town of twenty-five agents using natural language.
`,
			Authors:     []Author{user, joon},
			Status:      StatusPublished,
			PublishDate: "2023-04-10",
			Tags:        []string{"AI", "LLM", "Simulation"},
			Citations:   1245,
			CoverImage:  "https://picsum.photos/seed/agent/800/400",
		},
		{
			ID:       "p2",
			Title:    "Optimizing Neural Networks for Edge Devices",
			Abstract: "This paper explores novel quantization techniques to reduce the memory footprint of deep neural networks without significant loss in accuracy, specifically targeting IoT devices with limited compute resources.",
			Content: `# Optimizing Neural Networks for Edge Devices

## Abstract
The proliferation of IoT devices necessitates efficient AI models. We propose "Q-Edge", a quantization framework.

## Methodology
We utilize post-training quantization combined with knowledge distillation. The teacher model is a ResNet-50, and the student is a MobileNetV3.

## Results
Our method achieves 4x compression with <1% accuracy drop on ImageNet.
`,
			Authors:    []Author{user},
			Status:     StatusDraft,
			Tags:       []string{"Edge AI", "Optimization", "IoT"},
			Citations:  0,
			CoverImage: "https://picsum.photos/seed/network/800/400",
		},
		{
			ID:       "p3",
			Title:    "The Future of Renewable Energy Storage: A Comprehensive Review",
			Abstract: "A deep dive into next-generation battery technologies, including solid-state and flow batteries, analyzing their economic viability and scalability for grid-level storage.",
			Content: `# The Future of Renewable Energy Storage

## 1. Introduction
Energy storage is the bottleneck of the renewable revolution. This review covers the state of the art in 2024.

## 2. Solid State Batteries
Promising higher density and safety, but manufacturing costs remain high.

## 3. Flow Batteries
Ideal for stationary storage due to decoupled power and energy capacity.
`,
			Authors:     []Author{sarah},
			Status:      StatusPublished,
			PublishDate: "2024-01-15",
			Tags:        []string{"Energy", "Sustainability", "Engineering"},
			Citations:   89,
			CoverImage:  "https://picsum.photos/seed/energy/800/400",
		},
	}
}
