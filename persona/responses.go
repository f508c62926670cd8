package persona

var responses = map[Persona][]string{
	Brainstormer: {
		"I love that direction! Here are some ideas to build on that:\n\n1. Consider combining sustainability with technology\n2. Think about solving a personal pain point you've experienced\n3. Look for gaps in existing markets\n4. What if we reimagined traditional services with AI?\n\nWhich angle resonates most with you?",
		"Interesting! Here are 5 creative angles on that:\n\n• Social impact approach\n• Tech-enabled solution\n• Community-driven model\n• Subscription-based service\n• Marketplace platform\n\nWant me to dive deeper into any of these?",
	},
	Critic: {
		"Let me analyze this critically. While the concept has merit, here are some potential weaknesses to address:\n\n1. Market saturation concerns\n2. Scalability challenges\n3. User adoption barriers\n\nHow would you address these?",
		"From an analytical perspective, I see both strengths and areas for improvement. The core idea is solid, but the execution needs refinement in these areas...",
	},
	Developer: {
		"Here's a technical approach:\n\n```javascript\nfunction implementIdea() {\n  // Step 1: Define architecture\n  // Step 2: Set up infrastructure\n  // Step 3: Build MVP\n}\n```\n\nWould you like me to break down the implementation details?",
		"From a development standpoint, we should focus on:\n\n1. Tech stack selection\n2. Database schema design\n3. API architecture\n4. Testing strategy\n\nWhich aspect should we tackle first?",
	},
	Designer: {
		"Love this concept! Here's a color palette suggestion:\n\n**Primary Colors:**\n• Deep Purple (#6B46C1) - Trust & creativity\n• Soft Blue (#60A5FA) - Calm & clarity\n\n**Accent Colors:**\n• Warm Coral (#FB7185) - Energy\n• Mint Green (#34D399) - Growth\n\nThese create a modern, approachable feel. Want to see variations?",
		"From a design perspective, let's focus on the user experience:\n\n1. Visual hierarchy\n2. Typography choices\n3. Spacing and layout\n4. Interactive elements\n\nShall we create some mockups?",
	},
	Professor: {
		"Excellent topic! Here's a suggested outline:\n\n**Introduction**\n- Hook: Start with a compelling statistic\n- Context: Why this matters now\n\n**Body**\n- Point 1: The current landscape\n- Point 2: Key benefits\n- Point 3: Real-world examples\n\n**Conclusion**\n- Summary and call to action\n\nShall I draft the introduction?",
		"Let me break this down pedagogically. Understanding the fundamentals is crucial:\n\n1. Core concepts and definitions\n2. Historical context\n3. Current applications\n4. Future implications\n\nWhich area would you like to explore first?",
	},
}
